package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	docxDocumentXMLPath = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

// contentTypes is the subset of [Content_Types].xml needed to find the main part.
type contentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// docxMainPart finds the main document part, falling back to word/document.xml.
func docxMainPart(zr *zip.Reader) string {
	data, err := readZipFile(zr, contentTypesPath)
	if err != nil {
		return docxDocumentXMLPath
	}
	var ct contentTypes
	if err := xml.Unmarshal(data, &ct); err != nil {
		return docxDocumentXMLPath
	}
	for _, o := range ct.Overrides {
		if o.ContentType == docxMainContentType {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return docxDocumentXMLPath
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found", name)
}

// extractDOCX walks the main document part and keeps paragraph breaks,
// tabs and line breaks so the passage reads as written.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	part := docxMainPart(zr)
	docXML, err := readZipFile(zr, part)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}

	var b strings.Builder
	dec := xml.NewDecoder(bytes.NewReader(docXML))
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("extract DOCX: parse %s: %w", part, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return collapseSpaces(b.String()), nil
}

var spaceRuns = regexp.MustCompile(`[ \t]{2,}`)

func collapseSpaces(s string) string {
	return spaceRuns.ReplaceAllString(s, " ")
}

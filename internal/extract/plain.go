package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/lu4p/cat"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractPlain returns content as string without a UTF-8 byte order mark.
// Invalid UTF-8 sequences are replaced with the replacement character.
func extractPlain(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "\ufffd"), nil
	}
	return string(content), nil
}

// extractWithCat handles OpenDocument text and RTF.
func extractWithCat(content []byte) (string, error) {
	return cat.FromBytes(content)
}

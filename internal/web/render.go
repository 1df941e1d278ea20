package web

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/bunka/internal/cli"
	"github.com/hyperjump/bunka/internal/models"
	"github.com/hyperjump/bunka/internal/session"
	"github.com/hyperjump/bunka/pkg/utils"
)

//go:embed templates/index.html
var templateFS embed.FS

type example struct {
	Number int
	Label  string
}

// pageData is everything the page template reads.
type pageData struct {
	session.Snapshot
	Languages []models.Language
	Examples  []example
	Segments  []cli.Segment
	Labels    []models.LabelCount
	Span      *cli.GeoSpan
}

func (s *Server) pageData(snap session.Snapshot) pageData {
	d := pageData{Snapshot: snap, Languages: models.Languages}
	for i, text := range models.ExampleTexts {
		d.Examples = append(d.Examples, example{Number: i + 1, Label: utils.Truncate(text, 50)})
	}
	if res := snap.Result; res != nil {
		if res.HasEntities() {
			d.Segments = cli.HighlightEntities(res.InputText, res.DetectedEntities)
			d.Labels = models.CountEntityLabels(res.DetectedEntities)
		}
		if span, ok := cli.SpanOf(res.GeographicLocations); ok && span.Points > 1 {
			d.Span = &span
		}
	}
	return d
}

func (s *Server) funcs() template.FuncMap {
	return template.FuncMap{
		"markdown":     s.renderMarkdown,
		"mapsURL":      cli.MapsURL,
		"coords":       cli.FormatCoordinates,
		"languageName": models.LanguageName,
		"preview": func(text string) string {
			return utils.Truncate(utils.OneLine(text), 100)
		},
		"labelClass": func(label string) string {
			if label == "" {
				return "label-other"
			}
			return "label-" + strings.ToLower(label)
		},
		"labelName": func(label string) string {
			if label == "" {
				return "OTHER"
			}
			return label
		},
	}
}

// renderMarkdown converts a narrative section to HTML. Raw HTML in the
// source is dropped by the renderer.
func (s *Server) renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(src), &buf); err != nil {
		s.logger.Debug("markdown render failed", zap.Error(err))
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

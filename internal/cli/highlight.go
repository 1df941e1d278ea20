package cli

import (
	"sort"
	"strings"

	"github.com/hyperjump/bunka/internal/models"
)

// Segment is a run of the input text. Entity is nil for plain text.
type Segment struct {
	Text   string
	Entity *models.Entity
}

type placed struct {
	start, end int
	entity     *models.Entity
}

// HighlightEntities splits text into plain and entity segments. Entities
// with valid rune offsets are placed there; the rest are located by
// searching for their span. Overlapping entities after the first are
// dropped, as are spans that cannot be found.
func HighlightEntities(text string, entities []models.Entity) []Segment {
	runes := []rune(text)
	var spots []placed
	for i := range entities {
		e := &entities[i]
		if start, end, ok := offsets(runes, e); ok {
			spots = append(spots, placed{start, end, e})
		}
	}
	sort.SliceStable(spots, func(i, j int) bool { return spots[i].start < spots[j].start })

	var segs []Segment
	cursor := 0
	for _, p := range spots {
		if p.start < cursor {
			continue
		}
		if p.start > cursor {
			segs = append(segs, Segment{Text: string(runes[cursor:p.start])})
		}
		segs = append(segs, Segment{Text: string(runes[p.start:p.end]), Entity: p.entity})
		cursor = p.end
	}
	if cursor < len(runes) || len(segs) == 0 {
		segs = append(segs, Segment{Text: string(runes[cursor:])})
	}
	return segs
}

func offsets(runes []rune, e *models.Entity) (int, int, bool) {
	if e.Start != nil && e.End != nil {
		s, t := *e.Start, *e.End
		if s >= 0 && t > s && t <= len(runes) {
			return s, t, true
		}
	}
	if e.Span == "" {
		return 0, 0, false
	}
	span := []rune(e.Span)
	start := indexRunes(runes, span, false)
	if start < 0 {
		start = indexRunes(runes, span, true)
	}
	if start < 0 {
		return 0, 0, false
	}
	return start, start + len(span), true
}

func indexRunes(hay, needle []rune, fold bool) int {
outer:
	for i := 0; i+len(needle) <= len(hay); i++ {
		for j, r := range needle {
			h := hay[i+j]
			if h == r || (fold && strings.EqualFold(string(h), string(r))) {
				continue
			}
			continue outer
		}
		return i
	}
	return -1
}

// MarkEntities renders text with each entity span written as [span](LABEL).
func MarkEntities(text string, entities []models.Entity) string {
	var b strings.Builder
	for _, seg := range HighlightEntities(text, entities) {
		if seg.Entity == nil {
			b.WriteString(seg.Text)
			continue
		}
		label := seg.Entity.Label
		if label == "" {
			label = "OTHER"
		}
		b.WriteString("[" + seg.Text + "](" + label + ")")
	}
	return b.String()
}

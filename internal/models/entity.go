package models

import (
	"encoding/json"
	"sort"
)

// Entity is a span of the input text labeled as culturally significant.
// Start and End, when present, are rune offsets into the input text.
// Keys the backend adds beyond the known ones are kept in Extra.
type Entity struct {
	Span        string         `json:"span"`
	Label       string         `json:"label"`
	Start       *int           `json:"start,omitempty"`
	End         *int           `json:"end,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Extra       map[string]any `json:"-"`
}

var entityKnownKeys = map[string]bool{
	"span": true, "text": true, "label": true, "start": true, "end": true,
	"description": true, "url": true,
}

// UnmarshalJSON decodes the known keys, accepting "text" as an alias of
// "span", and keeps everything else in Extra. Offsets that are not
// non-negative whole numbers are left unset.
func (e *Entity) UnmarshalJSON(data []byte) error {
	type plain Entity
	var aux struct {
		plain
		Start json.RawMessage `json:"start"`
		End   json.RawMessage `json:"end"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p := aux.plain
	p.Start, p.End = parseOffset(aux.Start), parseOffset(aux.End)
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if p.Span == "" {
		if s, ok := raw["text"].(string); ok {
			p.Span = s
		}
	}
	for k, v := range raw {
		if entityKnownKeys[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}
	*e = Entity(p)
	return nil
}

// MarshalJSON writes the known keys plus Extra.
func (e Entity) MarshalJSON() ([]byte, error) {
	type plain Entity
	base, err := json.Marshal(plain(e))
	if err != nil {
		return nil, err
	}
	if len(e.Extra) == 0 {
		return base, nil
	}
	merged := make(map[string]any, len(e.Extra)+6)
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range e.Extra {
		if _, taken := merged[k]; !taken {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// LabelCount is the number of entities carrying one label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CountEntityLabels summarizes entities per label, most frequent first and
// alphabetical among ties.
func CountEntityLabels(entities []Entity) []LabelCount {
	counts := make(map[string]int)
	for _, e := range entities {
		label := e.Label
		if label == "" {
			label = "OTHER"
		}
		counts[label]++
	}
	out := make([]LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, LabelCount{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

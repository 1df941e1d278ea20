package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnmarshalJSON decodes the identifying and narrative fields strictly. Each
// optional section is decoded on its own: a list item that does not parse is
// skipped, a section that does not parse at all is left empty, and both are
// recorded in Dropped.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	type core AnalysisResult
	var aux struct {
		core
		ImageURL            json.RawMessage `json:"image_url"`
		DetectedEntities    json.RawMessage `json:"detected_entities"`
		TimelineEvents      json.RawMessage `json:"timeline_events"`
		GeographicLocations json.RawMessage `json:"geographic_locations"`
		KeyConcepts         json.RawMessage `json:"key_concepts"`
		ExternalResources   json.RawMessage `json:"external_resources"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	res := AnalysisResult(aux.core)
	var dropped []string
	if p := decodeSection[string](aux.ImageURL, "image_url", &dropped); p != nil {
		res.ImageURL = *p
	}
	res.DetectedEntities = decodeItems[Entity](aux.DetectedEntities, "detected_entities", &dropped)
	res.TimelineEvents = decodeItems[TimelineEvent](aux.TimelineEvents, "timeline_events", &dropped)
	res.GeographicLocations = decodeItems[GeoLocation](aux.GeographicLocations, "geographic_locations", &dropped)
	res.KeyConcepts = decodeItems[KeyConcept](aux.KeyConcepts, "key_concepts", &dropped)
	res.ExternalResources = decodeSection[ExternalResources](aux.ExternalResources, "external_resources", &dropped)
	res.Dropped = dropped
	*r = res
	return nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func decodeSection[T any](raw json.RawMessage, name string, dropped *[]string) *T {
	if isNull(raw) {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		*dropped = append(*dropped, name)
		return nil
	}
	return v
}

func decodeItems[T any](raw json.RawMessage, name string, dropped *[]string) []T {
	if isNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		*dropped = append(*dropped, name)
		return nil
	}
	if len(items) == 0 {
		return nil
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			*dropped = append(*dropped, fmt.Sprintf("%s[%d]", name, i))
			continue
		}
		out = append(out, v)
	}
	return out
}

// parseOffset reads an entity offset given as a number or numeric string.
func parseOffset(raw json.RawMessage) *int {
	if isNull(raw) {
		return nil
	}
	var f FlexString
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(f.String()), 64)
	if err != nil || v < 0 || v != math.Trunc(v) || v > math.MaxInt32 {
		return nil
	}
	n := int(v)
	return &n
}

// UnmarshalJSON accepts degrees as numbers or numeric strings.
func (c *LatLng) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lat FlexString `json:"lat"`
		Lng FlexString `json:"lng"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(raw.Lat.String()), 64)
	if err != nil {
		return fmt.Errorf("coordinates: lat %q: %w", raw.Lat, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(raw.Lng.String()), 64)
	if err != nil {
		return fmt.Errorf("coordinates: lng %q: %w", raw.Lng, err)
	}
	c.Lat, c.Lng = lat, lng
	return nil
}

// UnmarshalJSON keeps the place when its coordinates do not parse and
// leaves Coordinates nil instead.
func (g *GeoLocation) UnmarshalJSON(data []byte) error {
	type plain GeoLocation
	var aux struct {
		plain
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	loc := GeoLocation(aux.plain)
	loc.Coordinates = nil
	if !isNull(aux.Coordinates) {
		var c LatLng
		if err := json.Unmarshal(aux.Coordinates, &c); err == nil {
			loc.Coordinates = &c
		}
	}
	*g = loc
	return nil
}

// Package models defines the analysis request/response types exchanged with the
// cultural-context analysis service.
package models

import "strings"

// AnalysisResult is one server-computed analysis. History entries are stored
// AnalysisResults identified by ID.
type AnalysisResult struct {
	ID                       FlexString `json:"id"`
	InputText                string     `json:"input_text"`
	Language                 string     `json:"language"`
	CreatedAt                Timestamp  `json:"created_at"`
	CulturalOrigin           string     `json:"cultural_origin"`
	CrossCulturalConnections string     `json:"cross_cultural_connections"`
	ModernAnalogy            string     `json:"modern_analogy"`
	VisualizationDescription string     `json:"visualization_description"`
	// ImageURL holds an image-generation prompt, not a URL. The JSON name is
	// kept for compatibility with the backend.
	ImageURL            string             `json:"image_url,omitempty"`
	DetectedEntities    []Entity           `json:"detected_entities,omitempty"`
	TimelineEvents      []TimelineEvent    `json:"timeline_events,omitempty"`
	GeographicLocations []GeoLocation      `json:"geographic_locations,omitempty"`
	KeyConcepts         []KeyConcept       `json:"key_concepts,omitempty"`
	ExternalResources   *ExternalResources `json:"external_resources,omitempty"`

	// Dropped names the optional sections or items that were left out
	// because they did not parse, e.g. "external_resources" or
	// "detected_entities[2]".
	Dropped []string `json:"-"`
}

// TimelineEvent is one dated event in the historical timeline.
type TimelineEvent struct {
	Year         FlexString `json:"year"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Significance string     `json:"significance"`
}

// LatLng is a point in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeoLocation is a place relevant to the passage.
type GeoLocation struct {
	Name         string  `json:"name"`
	ModernName   string  `json:"modern_name,omitempty"`
	Significance string  `json:"significance"`
	Coordinates  *LatLng `json:"coordinates,omitempty"`
}

// ShowModernName reports whether the modern name differs from the historical one.
func (g GeoLocation) ShowModernName() bool {
	return g.ModernName != "" && g.ModernName != g.Name
}

// KeyConcept is a term with its explainer content.
type KeyConcept struct {
	Term           string `json:"term"`
	Definition     string `json:"definition"`
	Context        string `json:"context"`
	ModernParallel string `json:"modern_parallel"`
}

// ExternalResources are reference links grouped by kind.
type ExternalResources struct {
	TimelineLinks  []string `json:"timeline_links,omitempty"`
	MapLinks       []string `json:"map_links,omitempty"`
	FurtherReading []string `json:"further_reading,omitempty"`
}

// HasAny reports whether at least one link list is non-empty.
func (e *ExternalResources) HasAny() bool {
	if e == nil {
		return false
	}
	return len(e.TimelineLinks) > 0 || len(e.MapLinks) > 0 || len(e.FurtherReading) > 0
}

// HasEntities reports whether the entity highlight section should be shown.
func (r *AnalysisResult) HasEntities() bool { return len(r.DetectedEntities) > 0 }

// HasTimeline reports whether the timeline section should be shown.
func (r *AnalysisResult) HasTimeline() bool { return len(r.TimelineEvents) > 0 }

// HasLocations reports whether the geographic section should be shown.
func (r *AnalysisResult) HasLocations() bool { return len(r.GeographicLocations) > 0 }

// HasConcepts reports whether the key concepts section should be shown.
func (r *AnalysisResult) HasConcepts() bool { return len(r.KeyConcepts) > 0 }

// HasLearnMore reports whether the "Learn More" section should be shown.
func (r *AnalysisResult) HasLearnMore() bool { return r.ExternalResources.HasAny() }

// HasImagePrompt reports whether an image-generation prompt is present.
func (r *AnalysisResult) HasImagePrompt() bool { return strings.TrimSpace(r.ImageURL) != "" }

// Stats is the response of GET /api/stats.
type Stats struct {
	TotalAnalyses        int            `json:"total_analyses"`
	LanguageDistribution map[string]int `json:"language_distribution"`
}

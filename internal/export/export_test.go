package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/bunka/internal/models"
)

func sampleEntries() []models.AnalysisResult {
	ts, _ := models.ParseTimestamp("2024-03-01T10:00:00")
	return []models.AnalysisResult{
		{
			ID:             "7",
			InputText:      "The Silk Road connected East and West.",
			Language:       "en",
			CreatedAt:      ts,
			CulturalOrigin: "Han dynasty trade routes.",
			ImageURL:       "caravan at dusk",
			DetectedEntities: []models.Entity{
				{Span: "Silk Road", Label: "LOC"},
				{Span: "East"},
			},
			TimelineEvents: []models.TimelineEvent{{Year: "-130", Title: "Routes open"}},
			GeographicLocations: []models.GeoLocation{
				{Name: "Chang'an", ModernName: "Xi'an", Coordinates: &models.LatLng{Lat: 34.34, Lng: 108.94}},
				{Name: "Samarkand", Significance: "Trading hub", Coordinates: &models.LatLng{Lat: 39.65, Lng: 66.96}},
				{Name: "Somewhere"},
				{Name: "Nowhere", Coordinates: &models.LatLng{Lat: 120, Lng: 0}},
			},
			KeyConcepts: []models.KeyConcept{{Term: "Caravanserai"}, {Term: "Tribute"}},
		},
		{ID: "6", InputText: "Haiku is a poem.", Language: "ja"},
	}
}

func TestWriteHistoryXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistoryXLSX(&buf, sampleEntries()); err != nil {
		t.Fatalf("WriteHistoryXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(HistorySheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "ID" || rows[0][len(historyColumns)-1] != "Key Concepts" {
		t.Errorf("header = %v", rows[0])
	}
	first := rows[1]
	checks := map[int]string{
		0:  "7",
		2:  "en",
		3:  "The Silk Road connected East and West.",
		8:  "caravan at dusk",
		9:  "Silk Road (LOC); East (OTHER)",
		10: "-130: Routes open",
		11: "Chang'an (Xi'an); Samarkand; Somewhere; Nowhere",
		12: "Caravanserai; Tribute",
	}
	for col, want := range checks {
		if first[col] != want {
			t.Errorf("row 2 col %d = %q, want %q", col, first[col], want)
		}
	}
	if rows[2][0] != "6" || rows[2][2] != "ja" {
		t.Errorf("second row = %v", rows[2])
	}
}

func TestWriteHistoryXLSX_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistoryXLSX(&buf, nil); err != nil {
		t.Fatalf("WriteHistoryXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows(HistorySheet)
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}
}

func TestLocationsGeoJSON(t *testing.T) {
	res := sampleEntries()[0]
	fc, err := LocationsGeoJSON(&res)
	if err != nil {
		t.Fatalf("LocationsGeoJSON: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("features = %d, want 2", len(fc.Features))
	}
	first := fc.Features[0]
	if !first.Geometry.IsPoint() || first.Geometry.Point[0] != 108.94 || first.Geometry.Point[1] != 34.34 {
		t.Errorf("point = %v, want [lng lat]", first.Geometry.Point)
	}
	if first.Properties["modern_name"] != "Xi'an" || first.Properties["analysis_id"] != "7" {
		t.Errorf("properties = %v", first.Properties)
	}
	if _, ok := fc.Features[1].Properties["modern_name"]; ok {
		t.Error("modern_name should be omitted when absent")
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["type"] != "FeatureCollection" {
		t.Errorf("type = %v", decoded["type"])
	}
}

func TestLocationsGeoJSON_noCoordinates(t *testing.T) {
	res := &models.AnalysisResult{GeographicLocations: []models.GeoLocation{{Name: "Atlantis"}}}
	if _, err := LocationsGeoJSON(res); !errors.Is(err, ErrNoCoordinates) {
		t.Errorf("err = %v, want ErrNoCoordinates", err)
	}
	if _, err := LocationsGeoJSON(nil); !errors.Is(err, ErrNoCoordinates) {
		t.Errorf("nil result: err = %v", err)
	}
}

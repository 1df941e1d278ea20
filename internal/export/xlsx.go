// Package export writes fetched analyses to spreadsheet and GeoJSON files.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/bunka/internal/models"
)

// HistorySheet is the name of the worksheet written by WriteHistoryXLSX.
const HistorySheet = "History"

var historyColumns = []string{
	"ID", "Date", "Language", "Input",
	"Cultural Origin", "Cross-Cultural Connections", "Modern Analogy", "Visualization",
	"Image Prompt", "Entities", "Timeline", "Locations", "Key Concepts",
}

// WriteHistoryXLSX writes one row per entry, in list order, below a header row.
func WriteHistoryXLSX(w io.Writer, entries []models.AnalysisResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", HistorySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]interface{}, len(historyColumns))
	for i, c := range historyColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(HistorySheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(HistorySheet, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := historyRow(&entries[i])
		if err := f.SetSheetRow(HistorySheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(HistorySheet, "D", "I", 48); err != nil {
		return err
	}
	if err := f.SetPanes(HistorySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func historyRow(r *models.AnalysisResult) []interface{} {
	return []interface{}{
		r.ID.String(),
		r.CreatedAt.DateString(),
		r.Language,
		r.InputText,
		r.CulturalOrigin,
		r.CrossCulturalConnections,
		r.ModernAnalogy,
		r.VisualizationDescription,
		r.ImageURL,
		joinEntities(r.DetectedEntities),
		joinTimeline(r.TimelineEvents),
		joinLocations(r.GeographicLocations),
		joinConcepts(r.KeyConcepts),
	}
}

func joinEntities(entities []models.Entity) string {
	parts := make([]string, 0, len(entities))
	for _, e := range entities {
		label := e.Label
		if label == "" {
			label = "OTHER"
		}
		parts = append(parts, e.Span+" ("+label+")")
	}
	return strings.Join(parts, "; ")
}

func joinTimeline(events []models.TimelineEvent) string {
	parts := make([]string, 0, len(events))
	for _, ev := range events {
		parts = append(parts, ev.Year.String()+": "+ev.Title)
	}
	return strings.Join(parts, "\n")
}

func joinLocations(locations []models.GeoLocation) string {
	parts := make([]string, 0, len(locations))
	for _, loc := range locations {
		name := loc.Name
		if loc.ShowModernName() {
			name += " (" + loc.ModernName + ")"
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, "; ")
}

func joinConcepts(concepts []models.KeyConcept) string {
	parts := make([]string, 0, len(concepts))
	for _, c := range concepts {
		parts = append(parts, c.Term)
	}
	return strings.Join(parts, "; ")
}

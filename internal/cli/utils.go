// Package cli renders analyses, history and service info for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/bunka/internal/models"
	"github.com/hyperjump/bunka/internal/session"
	"github.com/hyperjump/bunka/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one line per item, tab separated.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// EmptyHistoryMessage is printed when there are no stored analyses.
const EmptyHistoryMessage = "No analyses yet. Start by analyzing some text!"

// ParseOutputFormat validates an --output value. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

const rule = "─────────────────────────────────────────────────────────"

// WriteResult writes res to w. A nil result writes nothing. In text format
// optional sections appear only when they have content, and the timeline,
// map and concept bodies only when view has them expanded.
func WriteResult(w io.Writer, res *models.AnalysisResult, view session.ViewState, format OutputFormat) error {
	if res == nil {
		return nil
	}
	switch format {
	case OutputJSON:
		return writeJSON(w, res)
	case OutputCompact:
		_, err := fmt.Fprintln(w, compactLine(res, utils.OneLine(res.CulturalOrigin)))
		return err
	default:
		writeResultText(w, res, view)
		return nil
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func compactLine(res *models.AnalysisResult, body string) string {
	return strings.Join([]string{
		res.ID.String(), res.Language, res.CreatedAt.DateString(), utils.Truncate(body, 100),
	}, "\t")
}

func writeResultText(w io.Writer, res *models.AnalysisResult, view session.ViewState) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Analysis #%s | %s", res.ID, models.LanguageName(res.Language))
	if d := res.CreatedAt.DateString(); d != "" {
		fmt.Fprintf(w, " | %s", d)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)

	if res.HasEntities() {
		fmt.Fprintln(w, "\nInteractive Cultural Context")
		counts := models.CountEntityLabels(res.DetectedEntities)
		parts := make([]string, len(counts))
		for i, c := range counts {
			parts[i] = fmt.Sprintf("%s %d", c.Label, c.Count)
		}
		fmt.Fprintf(w, "Entities: %s\n", strings.Join(parts, ", "))
		fmt.Fprintf(w, "%s\n", MarkEntities(res.InputText, res.DetectedEntities))
	}

	section(w, "1. Cultural Origin", res.CulturalOrigin)
	section(w, "2. Cross-Cultural Connections", res.CrossCulturalConnections)
	section(w, "3. Modern Analogy", res.ModernAnalogy)
	section(w, "4. Visualization Description", res.VisualizationDescription)
	if res.HasImagePrompt() {
		fmt.Fprintf(w, "\n  Enhanced Image Generation Prompt:\n  %s\n", strings.TrimSpace(res.ImageURL))
	}

	if res.HasTimeline() {
		fmt.Fprintf(w, "\nHistorical Timeline (%d events)%s\n", len(res.TimelineEvents), hint(view.TimelineExpanded, "timeline"))
		if view.TimelineExpanded {
			for _, ev := range res.TimelineEvents {
				fmt.Fprintf(w, "  %-8s %s\n", ev.Year, ev.Title)
				if ev.Description != "" {
					fmt.Fprintf(w, "           %s\n", ev.Description)
				}
				if ev.Significance != "" {
					fmt.Fprintf(w, "           Significance: %s\n", ev.Significance)
				}
			}
		}
	}

	if res.HasLocations() {
		fmt.Fprintf(w, "\nGeographic Context (%d locations)%s\n", len(res.GeographicLocations), hint(view.MapExpanded, "map"))
		if view.MapExpanded {
			writeLocations(w, res.GeographicLocations)
		}
	}

	if res.HasConcepts() {
		fmt.Fprintln(w, "\nKey Concepts Explained")
		for i, c := range res.KeyConcepts {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, c.Term)
			if !view.ConceptExpanded(i) {
				continue
			}
			fmt.Fprintf(w, "      Definition: %s\n", c.Definition)
			if c.Context != "" {
				fmt.Fprintf(w, "      Cultural Context: %s\n", c.Context)
			}
			if c.ModernParallel != "" {
				fmt.Fprintf(w, "      Modern Connection: %s\n", c.ModernParallel)
			}
		}
	}

	if res.HasLearnMore() {
		fmt.Fprintln(w, "\nLearn More")
		links(w, "Interactive Timelines", res.ExternalResources.TimelineLinks)
		links(w, "Interactive Maps", res.ExternalResources.MapLinks)
		links(w, "Further Reading", res.ExternalResources.FurtherReading)
	}
	fmt.Fprintln(w)
}

func writeLocations(w io.Writer, locations []models.GeoLocation) {
	for _, loc := range locations {
		fmt.Fprintf(w, "  %s", loc.Name)
		if loc.ShowModernName() {
			fmt.Fprintf(w, " (Modern name: %s)", loc.ModernName)
		}
		fmt.Fprintln(w)
		if loc.Significance != "" {
			fmt.Fprintf(w, "    %s\n", loc.Significance)
		}
		if loc.Coordinates != nil {
			fmt.Fprintf(w, "    %s  %s\n", FormatCoordinates(*loc.Coordinates), MapsURL(*loc.Coordinates))
		}
	}
	if span, ok := SpanOf(locations); ok && span.Points > 1 {
		fmt.Fprintf(w, "  Spread: %d places, up to %.0f km apart, centered near %s\n",
			span.Points, span.MaxKm, FormatCoordinates(span.Center))
	}
}

func section(w io.Writer, title, body string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.TrimSpace(body))
}

func hint(expanded bool, name string) string {
	if expanded {
		return ""
	}
	return fmt.Sprintf(" [collapsed, --expand %s]", name)
}

func links(w io.Writer, title string, urls []string) {
	if len(urls) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\n", title)
	for _, u := range urls {
		fmt.Fprintf(w, "    %s\n", u)
	}
}

// WriteHistory writes the history list, newest first as given.
func WriteHistory(w io.Writer, entries []models.AnalysisResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if entries == nil {
			entries = []models.AnalysisResult{}
		}
		return writeJSON(w, entries)
	case OutputCompact:
		for i := range entries {
			if _, err := fmt.Fprintln(w, compactLine(&entries[i], utils.OneLine(entries[i].InputText))); err != nil {
				return err
			}
		}
		return nil
	default:
		if len(entries) == 0 {
			_, err := fmt.Fprintln(w, EmptyHistoryMessage)
			return err
		}
		fmt.Fprintf(w, "\nRecent analyses (%d)\n\n", len(entries))
		for _, e := range entries {
			fmt.Fprintf(w, "#%-5s %-10s %-3s %s\n", e.ID, e.CreatedAt.DateString(), e.Language,
				utils.Truncate(utils.OneLine(e.InputText), 80))
		}
		return nil
	}
}

// WriteLanguages lists the supported input languages.
func WriteLanguages(w io.Writer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, models.Languages)
	}
	for _, l := range models.Languages {
		if format == OutputCompact {
			fmt.Fprintf(w, "%s\t%s\n", l.Code, l.Name)
		} else {
			fmt.Fprintf(w, "  %-3s %s\n", l.Code, l.Name)
		}
	}
	return nil
}

// WriteStats writes service-wide counts, languages by descending count.
func WriteStats(w io.Writer, stats *models.Stats, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, stats)
	}
	codes := make([]string, 0, len(stats.LanguageDistribution))
	for code := range stats.LanguageDistribution {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		ci, cj := stats.LanguageDistribution[codes[i]], stats.LanguageDistribution[codes[j]]
		if ci != cj {
			return ci > cj
		}
		return codes[i] < codes[j]
	})
	if format == OutputCompact {
		fmt.Fprintf(w, "total\t%d\n", stats.TotalAnalyses)
		for _, code := range codes {
			fmt.Fprintf(w, "%s\t%d\n", code, stats.LanguageDistribution[code])
		}
		return nil
	}
	fmt.Fprintf(w, "Total analyses: %d\n", stats.TotalAnalyses)
	for _, code := range codes {
		fmt.Fprintf(w, "  %-24s %d\n", models.LanguageName(code), stats.LanguageDistribution[code])
	}
	return nil
}

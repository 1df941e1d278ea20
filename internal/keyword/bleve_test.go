package keyword

import (
	"context"
	"strings"
	"testing"

	"github.com/hyperjump/bunka/internal/models"
)

func sampleHistory() []models.AnalysisResult {
	return []models.AnalysisResult{
		{
			ID:             "3",
			InputText:      "The Ramayana tells of Prince Rama and his quest to rescue Sita.",
			Language:       "en",
			CulturalOrigin: "An ancient Sanskrit epic attributed to Valmiki.",
			KeyConcepts:    []models.KeyConcept{{Term: "Dharma"}},
		},
		{
			ID:             "2",
			InputText:      "Haiku is a traditional form of Japanese poetry.",
			Language:       "ja",
			CulturalOrigin: "Edo period poets such as Basho refined the form.",
			GeographicLocations: []models.GeoLocation{
				{Name: "Edo", ModernName: "Tokyo"},
			},
		},
		{
			ID:            "1",
			InputText:     "La Renaissance fut une période de renouveau culturel.",
			Language:      "fr",
			ModernAnalogy: "Like the dharma of open-source communities today.",
		},
	}
}

func newTestIndex(t *testing.T) *HistoryIndex {
	t.Helper()
	idx, err := NewHistoryIndex(sampleHistory())
	if err != nil {
		t.Fatalf("NewHistoryIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func ids(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

func TestHistoryIndex_SearchFields(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	n, err := idx.DocCount()
	if err != nil || n != 3 {
		t.Fatalf("DocCount = %d, %v; want 3", n, err)
	}

	tests := []struct {
		query string
		want  string
	}{
		{"Ramayana", "3"},     // input text
		{"valmiki", "3"},      // analysis section
		{"tokyo", "2"},        // extracted place name
		{"renaissance", "1"},  // non-English input
	}
	for _, tt := range tests {
		hits, err := idx.Search(ctx, tt.query, 10, nil)
		if err != nil {
			t.Fatalf("Search(%q): %v", tt.query, err)
		}
		if len(hits) == 0 || hits[0].ID != tt.want {
			t.Errorf("Search(%q) = %v, want first %s", tt.query, ids(hits), tt.want)
		}
	}

	hits, err := idx.Search(ctx, "   ", 10, nil)
	if err != nil || len(hits) != 0 {
		t.Errorf("blank query: %v, %v", hits, err)
	}
}

func TestHistoryIndex_TermsBoost(t *testing.T) {
	idx := newTestIndex(t)
	hits, err := idx.Search(context.Background(), "dharma", 10, &SearchOptions{TermsBoost: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].ID != "3" {
		t.Errorf("hits = %v, want concept match 3 first", ids(hits))
	}
}

func TestHistoryIndex_FuzzyAndLanguage(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	hits, err := idx.Search(ctx, "ramayna", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("exact search for a typo should miss, got %v", ids(hits))
	}
	hits, err = idx.Search(ctx, "ramayna", 10, &SearchOptions{Fuzziness: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 || hits[0].ID != "3" {
		t.Errorf("fuzzy hits = %v, want 3", ids(hits))
	}

	hits, err = idx.Search(ctx, "dharma", 10, &SearchOptions{Language: "fr"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "1" {
		t.Errorf("language filtered hits = %v, want [1]", ids(hits))
	}
}

func TestSelect(t *testing.T) {
	entries := sampleHistory()
	got := Select(entries, []Hit{{ID: "1"}, {ID: "missing"}, {ID: "3"}})
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Errorf("Select = %+v", got)
	}
}

func TestHistoryIndex_SearchErrorOnClosedIndex(t *testing.T) {
	idx, err := NewHistoryIndex(sampleHistory())
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}
	_, err = idx.Search(context.Background(), "dharma", 10, nil)
	if err == nil {
		t.Fatal("expected an error searching a closed index")
	}
	if !strings.HasPrefix(err.Error(), "bleve search failed: ") {
		t.Errorf("error = %q, want lowercase bleve search prefix", err)
	}
}

package keyword

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/bunka/internal/models"
)

const (
	fieldText     = "text"
	fieldAnalysis = "analysis"
	fieldTerms    = "terms"
	fieldLanguage = "language"
)

var searchFields = []string{fieldText, fieldAnalysis, fieldTerms}

// HistoryIndex is an in-memory Bleve index over history entries.
type HistoryIndex struct {
	index bleve.Index
}

// NewHistoryIndex builds an index over entries. The index lives in memory
// and is rebuilt from each fetched list.
func NewHistoryIndex(entries []models.AnalysisResult) (*HistoryIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer: lowercase + tokenize, no stemming, so names match as written.
	textFieldMapping.Analyzer = standard.Name
	for _, f := range searchFields {
		docMapping.AddFieldMappingsAt(f, textFieldMapping)
	}
	docMapping.AddFieldMappingsAt(fieldLanguage, bleve.NewKeywordFieldMapping())
	im.AddDocumentMapping("entry", docMapping)
	im.DefaultType = "entry"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	h := &HistoryIndex{index: index}

	batch := index.NewBatch()
	for i := range entries {
		if err := batch.Index(entries[i].ID.String(), document(&entries[i])); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index entry %s: %w", entries[i].ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to index history: %w", err)
	}
	return h, nil
}

func document(e *models.AnalysisResult) map[string]interface{} {
	var terms []string
	for _, ent := range e.DetectedEntities {
		terms = append(terms, ent.Span)
	}
	for _, c := range e.KeyConcepts {
		terms = append(terms, c.Term)
	}
	for _, loc := range e.GeographicLocations {
		terms = append(terms, loc.Name, loc.ModernName)
	}
	for _, ev := range e.TimelineEvents {
		terms = append(terms, ev.Title)
	}
	return map[string]interface{}{
		fieldText: e.InputText,
		fieldAnalysis: strings.Join([]string{
			e.CulturalOrigin, e.CrossCulturalConnections, e.ModernAnalogy, e.VisualizationDescription,
		}, "\n"),
		fieldTerms:    strings.Join(terms, "\n"),
		fieldLanguage: e.Language,
	}
}

// Search runs query over the input text, the analysis sections and the
// extracted terms, returning up to limit hits by descending score.
func (h *HistoryIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	termsBoost := 1.0
	fuzziness := 0
	language := ""
	if opts != nil {
		if opts.TermsBoost > 0 {
			termsBoost = opts.TermsBoost
		}
		if opts.Fuzziness > 0 {
			fuzziness = min(opts.Fuzziness, 2)
		}
		language = opts.Language
	}

	fieldQueries := make([]blevequery.Query, 0, len(searchFields))
	for _, f := range searchFields {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(f)
		mq.SetFuzziness(fuzziness)
		if f == fieldTerms && termsBoost != 1.0 {
			mq.SetBoost(termsBoost)
		}
		fieldQueries = append(fieldQueries, mq)
	}
	var q blevequery.Query = bleve.NewDisjunctionQuery(fieldQueries...)
	if language != "" {
		lq := bleve.NewTermQuery(language)
		lq.SetField(fieldLanguage)
		q = bleve.NewConjunctionQuery(q, lq)
	}

	if limit <= 0 {
		limit = 10
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := h.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}
	out := make([]Hit, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = Hit{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Select returns the entries named by hits, in hit order.
func Select(entries []models.AnalysisResult, hits []Hit) []models.AnalysisResult {
	byID := make(map[string]int, len(entries))
	for i := range entries {
		byID[entries[i].ID.String()] = i
	}
	out := make([]models.AnalysisResult, 0, len(hits))
	for _, hit := range hits {
		if i, ok := byID[hit.ID]; ok {
			out = append(out, entries[i])
		}
	}
	return out
}

// DocCount returns the number of indexed entries.
func (h *HistoryIndex) DocCount() (uint64, error) {
	return h.index.DocCount()
}

// Close closes the Bleve index.
func (h *HistoryIndex) Close() error {
	return h.index.Close()
}

// GetAllTerms returns the unique terms of all searchable fields.
func (h *HistoryIndex) GetAllTerms() ([]string, error) {
	seen := make(map[string]struct{})
	terms := make([]string, 0)
	for _, f := range searchFields {
		dict, err := h.index.FieldDict(f)
		if err != nil {
			return nil, err
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			if _, ok := seen[entry.Term]; !ok {
				seen[entry.Term] = struct{}{}
				terms = append(terms, entry.Term)
			}
		}
		_ = dict.Close()
	}
	return terms, nil
}

// GetTermFrequency returns the number of entries containing term.
func (h *HistoryIndex) GetTermFrequency(term string) (int, error) {
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(term))
	req.Size = 0
	results, err := h.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("failed to search for term frequency: %w", err)
	}
	return int(results.Total), nil
}

// Package keyword provides full-text search over the fetched history list.
package keyword

// SearchOptions optional parameters for history search. Nil means use defaults.
type SearchOptions struct {
	// TermsBoost multiplies matches in the extracted terms field (entity
	// spans, concept terms, place names, timeline titles). Use 1.0 for no boost.
	TermsBoost float64
	// Fuzziness is the maximum edit distance for typo tolerance (0 disables, max 2).
	Fuzziness int
	// Language restricts hits to one language code when set.
	Language string
}

// Hit is a single search hit.
type Hit struct {
	ID    string
	Score float64
}

// TermDictionary provides the indexed vocabulary for suggestions.
type TermDictionary interface {
	GetAllTerms() ([]string, error)
	// GetTermFrequency returns the number of entries containing the term.
	GetTermFrequency(term string) (int, error)
}

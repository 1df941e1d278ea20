package keyword

import (
	"sort"
	"strings"
)

// Suggestion is a dictionary term close to a query term.
type Suggestion struct {
	Term      string
	Distance  int
	Frequency int
}

// Suggester proposes corrections for query terms that are not indexed.
type Suggester struct {
	dict        TermDictionary
	maxDistance int
	terms       []string
	known       map[string]struct{}
}

// NewSuggester loads the vocabulary of dict. maxDistance <= 0 means 2.
func NewSuggester(dict TermDictionary, maxDistance int) (*Suggester, error) {
	if maxDistance <= 0 {
		maxDistance = 2
	}
	terms, err := dict.GetAllTerms()
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		known[strings.ToLower(t)] = struct{}{}
	}
	return &Suggester{dict: dict, maxDistance: maxDistance, terms: terms, known: known}, nil
}

// Suggest returns indexed terms within the edit distance of term, closest
// first and more frequent first among equals.
func (s *Suggester) Suggest(term string) []Suggestion {
	term = strings.ToLower(term)
	var out []Suggestion
	for _, candidate := range s.terms {
		c := strings.ToLower(candidate)
		if c == term {
			continue
		}
		if abs(len([]rune(c))-len([]rune(term))) > s.maxDistance {
			continue
		}
		d := LevenshteinDistance(term, c)
		if d > s.maxDistance {
			continue
		}
		freq, err := s.dict.GetTermFrequency(candidate)
		if err != nil || freq < 1 {
			continue
		}
		out = append(out, Suggestion{Term: candidate, Distance: d, Frequency: freq})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// DidYouMean returns query with every unknown term replaced by its best
// suggestion, and whether anything changed.
func (s *Suggester) DidYouMean(query string) (string, bool) {
	words := strings.Fields(strings.ToLower(query))
	changed := false
	for i, w := range words {
		if _, ok := s.known[w]; ok {
			continue
		}
		if sug := s.Suggest(w); len(sug) > 0 {
			words[i] = sug[0].Term
			changed = true
		}
	}
	return strings.Join(words, " "), changed
}

// LevenshteinDistance is the number of single-rune insertions, deletions or
// substitutions turning a into b.
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MinTextLength is the minimum number of characters, after trimming, an
// analysis request must carry.
const MinTextLength = 10

// ErrTextTooShort is returned when the trimmed text is shorter than MinTextLength.
var ErrTextTooShort = errors.New("text must be at least 10 characters long")

// ErrUnsupportedLanguage is returned for a language code outside Languages.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// AnalysisRequest is the body of POST /api/analyze.
type AnalysisRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// NewAnalysisRequest trims text, defaults an empty language to DefaultLanguage
// and validates the result.
func NewAnalysisRequest(text, language string) (*AnalysisRequest, error) {
	req := &AnalysisRequest{Text: strings.TrimSpace(text), Language: strings.TrimSpace(language)}
	if req.Language == "" {
		req.Language = DefaultLanguage
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks text length (in characters, after trimming) and language.
func (r *AnalysisRequest) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(r.Text)) < MinTextLength {
		return ErrTextTooShort
	}
	if !IsSupportedLanguage(r.Language) {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, r.Language)
	}
	return nil
}

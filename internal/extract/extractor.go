// Package extract turns files and web pages into a plain-text passage for analysis.
package extract

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUnsupported is returned for formats that cannot hold a passage.
	ErrUnsupported = errors.New("unsupported input format")
	// ErrEmpty is returned when a source yields no text.
	ErrEmpty = errors.New("no text found")
)

// DefaultMaxBytes caps how much is read from a file or URL.
const DefaultMaxBytes = 10 * 1024 * 1024

// Extractor reads passages from files and URLs.
type Extractor struct {
	client   *http.Client
	maxBytes int64
	logger   *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient sets the client used by FetchURL.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) { e.client = c }
}

// WithMaxBytes caps input size.
func WithMaxBytes(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: DefaultMaxBytes,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the file at path and returns its passage text.
func (e *Extractor) Extract(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if info.Size() > e.maxBytes {
		return "", fmt.Errorf("read file: %s is %d bytes, limit is %d", path, info.Size(), e.maxBytes)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts a passage from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Unknown extensions are
// read as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(ext) {
	case ".pdf":
		text, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".odt", ".rtf":
		text, err = extractWithCat(content)
	case ".xlsx":
		text, err = extractExcel(content)
	case ".pptx", ".odp", ".ods", ".doc", ".xls", ".ppt":
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	default:
		text, err = extractPlain(content)
	}
	if err != nil {
		return "", err
	}
	text = Normalize(text)
	if text == "" {
		return "", ErrEmpty
	}
	e.logger.Debug("extracted passage", zap.String("ext", ext), zap.Int("runes", len([]rune(text))))
	return text, nil
}

var (
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	blankLines    = regexp.MustCompile(`\n{3,}`)
)

// Normalize unifies line endings, strips trailing spaces and collapses runs
// of blank lines to one.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

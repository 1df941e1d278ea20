package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// Article is the readable content of a web page.
type Article struct {
	Title string
	Text  string
}

var (
	rubyRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	rubyRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// stripRuby removes ruby annotations so readings are not duplicated into
// the text of Japanese and Chinese pages.
func stripRuby(html []byte) []byte {
	return rubyRP.ReplaceAll(rubyRT.ReplaceAll(html, nil), nil)
}

// FetchURL downloads rawURL and extracts its main article text.
func (e *Extractor) FetchURL(ctx context.Context, rawURL string) (*Article, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("fetch %q: only http and https URLs are supported", rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", rawURL, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %q: status %d", rawURL, resp.StatusCode)
	}
	if resp.ContentLength > e.maxBytes {
		return nil, fmt.Errorf("fetch %q: content length %d exceeds limit of %d bytes", rawURL, resp.ContentLength, e.maxBytes)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %q: read body: %w", rawURL, err)
	}
	if int64(len(body)) > e.maxBytes {
		return nil, fmt.Errorf("fetch %q: body exceeds limit of %d bytes", rawURL, e.maxBytes)
	}

	article, err := readability.FromReader(bytes.NewReader(stripRuby(body)), parsed)
	if err != nil {
		return nil, fmt.Errorf("extract article from %q: %w", rawURL, err)
	}
	text := Normalize(article.TextContent)
	if text == "" {
		return nil, fmt.Errorf("extract article from %q: %w", rawURL, ErrEmpty)
	}
	e.logger.Debug("fetched article", zap.String("url", rawURL), zap.String("title", article.Title),
		zap.Int("runes", len([]rune(text))))
	return &Article{Title: article.Title, Text: text}, nil
}

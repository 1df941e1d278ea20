// Package apitest provides an in-memory stand-in for the analysis service,
// for tests of code that talks to it over HTTP.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hyperjump/bunka/internal/models"
)

// Backend is a fake analysis service. Stored entries are kept newest first.
type Backend struct {
	Server *httptest.Server

	mu       sync.Mutex
	nextID   int
	entries  []models.AnalysisResult
	calls    map[string]int
	fail     map[string]Failure
	analyzer func(req models.AnalysisRequest) models.AnalysisResult
}

// Failure is a canned error response for one route.
type Failure struct {
	Status int
	Detail string
	// Drop closes the connection without a response.
	Drop bool
}

// Route keys used by Calls and Fail.
const (
	RouteAnalyze = "POST /api/analyze"
	RouteHistory = "GET /api/history"
	RouteGet     = "GET /api/analysis"
	RouteDelete  = "DELETE /api/analysis"
	RouteStats   = "GET /api/stats"
)

// NewBackend starts a fake service. Call Close when done.
func NewBackend() *Backend {
	b := &Backend{
		nextID:   1,
		calls:    make(map[string]int),
		fail:     make(map[string]Failure),
		analyzer: DefaultAnalysis,
	}
	r := chi.NewRouter()
	r.Post("/api/analyze", b.handleAnalyze)
	r.Get("/api/history", b.handleHistory)
	r.Get("/api/analysis/{id}", b.handleGet)
	r.Delete("/api/analysis/{id}", b.handleDelete)
	r.Get("/api/stats", b.handleStats)
	b.Server = httptest.NewServer(r)
	return b
}

// URL is the base URL of the fake service.
func (b *Backend) URL() string { return b.Server.URL }

// Close shuts the server down.
func (b *Backend) Close() { b.Server.Close() }

// Calls returns how many requests hit route.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// TotalCalls returns the number of requests across all routes.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// Fail makes route answer with f until Recover is called.
func (b *Backend) Fail(route string, f Failure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[route] = f
}

// Recover clears a failure set with Fail.
func (b *Backend) Recover(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.fail, route)
}

// SetAnalyzer replaces how analyze results are built.
func (b *Backend) SetAnalyzer(fn func(req models.AnalysisRequest) models.AnalysisResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.analyzer = fn
}

// Seed stores entries as if they had been analyzed, oldest first in the argument.
func (b *Backend) Seed(entries ...models.AnalysisResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range entries {
		b.storeLocked(e)
	}
}

// Entries returns a copy of the stored entries, newest first.
func (b *Backend) Entries() []models.AnalysisResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.AnalysisResult(nil), b.entries...)
}

func (b *Backend) storeLocked(e models.AnalysisResult) models.AnalysisResult {
	if e.ID == "" {
		e.ID = models.FlexString(strconv.Itoa(b.nextID))
		b.nextID++
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = models.Timestamp{Time: time.Now().UTC()}
	}
	b.entries = append([]models.AnalysisResult{e}, b.entries...)
	return e
}

// enter counts the call and reports whether a failure was written.
func (b *Backend) enter(w http.ResponseWriter, route string) bool {
	b.mu.Lock()
	b.calls[route]++
	f, failing := b.fail[route]
	b.mu.Unlock()
	if !failing {
		return false
	}
	if f.Drop {
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
				return true
			}
		}
	}
	status := f.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if f.Detail == "" {
		w.WriteHeader(status)
		return true
	}
	writeJSON(w, status, map[string]string{"detail": f.Detail})
	return true
}

func (b *Backend) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, RouteAnalyze) {
		return
	}
	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "invalid body"}},
		})
		return
	}
	if len([]rune(strings.TrimSpace(req.Text))) < models.MinTextLength {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Text must be at least 10 characters long"})
		return
	}
	b.mu.Lock()
	result := b.analyzer(req)
	result.InputText = req.Text
	result.Language = req.Language
	stored := b.storeLocked(result)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, stored)
}

func (b *Backend) handleHistory(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, RouteHistory) {
		return
	}
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	b.mu.Lock()
	entries := b.entries
	if skip > len(entries) {
		skip = len(entries)
	}
	entries = entries[skip:]
	if limit < len(entries) {
		entries = entries[:limit]
	}
	out := append([]models.AnalysisResult{}, entries...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleGet(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, RouteGet) {
		return
	}
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.entries {
		if e.ID.String() == id {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": fmt.Sprintf("Analysis with ID %s not found", id)})
}

func (b *Backend) handleDelete(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, RouteDelete) {
		return
	}
	id := chi.URLParam(r, "id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.entries {
		if e.ID.String() == id {
			b.entries = append(b.entries[:i:i], b.entries[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Analysis %s deleted successfully", id)})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": fmt.Sprintf("Analysis with ID %s not found", id)})
}

func (b *Backend) handleStats(w http.ResponseWriter, r *http.Request) {
	if b.enter(w, RouteStats) {
		return
	}
	b.mu.Lock()
	stats := models.Stats{TotalAnalyses: len(b.entries), LanguageDistribution: map[string]int{}}
	for _, e := range b.entries {
		stats.LanguageDistribution[e.Language]++
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// DefaultAnalysis fills the four narrative sections and leaves every optional
// section empty.
func DefaultAnalysis(req models.AnalysisRequest) models.AnalysisResult {
	return models.AnalysisResult{
		CulturalOrigin:           "Origin of: " + req.Text,
		CrossCulturalConnections: "Connections for " + req.Language,
		ModernAnalogy:            "A modern analogy.",
		VisualizationDescription: "A visualization.",
		ImageURL:                 "An illustration prompt.",
	}
}

// RichAnalysis is DefaultAnalysis plus every optional section.
func RichAnalysis(req models.AnalysisRequest) models.AnalysisResult {
	r := DefaultAnalysis(req)
	start, end := 0, 3
	r.DetectedEntities = []models.Entity{{Span: string([]rune(req.Text)[:3]), Label: "CONCEPT", Start: &start, End: &end}}
	r.TimelineEvents = []models.TimelineEvent{{Year: "1686", Title: "Old pond", Description: "Basho.", Significance: "Canonical."}}
	r.GeographicLocations = []models.GeoLocation{{
		Name: "Edo", ModernName: "Tokyo", Significance: "Capital.",
		Coordinates: &models.LatLng{Lat: 35.6762, Lng: 139.6503},
	}}
	r.KeyConcepts = []models.KeyConcept{{Term: "Kigo", Definition: "Season word.", Context: "Haiku.", ModernParallel: "Hashtags."}}
	r.ExternalResources = &models.ExternalResources{FurtherReading: []string{"https://en.wikipedia.org/wiki/Haiku"}}
	return r
}

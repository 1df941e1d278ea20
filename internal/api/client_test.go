package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/bunka/internal/api/apitest"
	"github.com/hyperjump/bunka/internal/models"
)

func TestClient_AnalyzeAndHistory(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	c := NewClient(backend.URL()+"/", 5*time.Second)
	ctx := context.Background()

	req, err := models.NewAnalysisRequest("  The Renaissance was a period of cultural rebirth.  ", "en")
	require.NoError(t, err)
	res, err := c.Analyze(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "1", res.ID.String())
	assert.Equal(t, "The Renaissance was a period of cultural rebirth.", res.InputText)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, 1, backend.Calls(apitest.RouteAnalyze))

	history, err := c.History(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, res.ID, history[0].ID)

	got, err := c.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, res.CulturalOrigin, got.CulturalOrigin)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalAnalyses)
	assert.Equal(t, 1, stats.LanguageDistribution["en"])

	require.NoError(t, c.Delete(ctx, "1"))
	history, err = c.History(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NotNil(t, history, "empty history should be an empty slice, not nil")
}

func TestClient_HistoryQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		_, _ = w.Write([]byte("null"))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second)

	_, err := c.History(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "limit=10", gotQuery)

	_, err = c.History(context.Background(), 20, 10)
	require.NoError(t, err)
	assert.Equal(t, "limit=10&skip=20", gotQuery)
}

func TestClient_HistorySkipsUnreadableEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
  {"id": 2, "input_text": "Haiku is a Japanese poem.", "language": "ja",
   "detected_entities": [{"span": "Haiku", "label": "ART", "start": 0.0, "end": 5}],
   "geographic_locations": [{"name": "Edo", "coordinates": {"lat": "35.68", "lng": "139.65"}}],
   "external_resources": []},
  {"id": {"broken": true}, "input_text": 12}
]`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second)

	history, err := c.History(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	entry := history[0]
	assert.Equal(t, "2", entry.ID.String())
	require.Len(t, entry.DetectedEntities, 1)
	require.NotNil(t, entry.DetectedEntities[0].Start)
	assert.Equal(t, 0, *entry.DetectedEntities[0].Start)
	require.NotNil(t, entry.GeographicLocations[0].Coordinates)
	assert.InDelta(t, 35.68, entry.GeographicLocations[0].Coordinates.Lat, 1e-9)
	assert.False(t, entry.HasLearnMore())
	assert.Equal(t, []string{"external_resources"}, entry.Dropped)
}

func TestClient_AnalyzeToleratesMalformedSection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 9, "input_text": "long enough text", "language": "en",
  "cultural_origin": "Somewhere.", "key_concepts": "none", "external_resources": []}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second)

	res, err := c.Analyze(context.Background(), &models.AnalysisRequest{Text: "long enough text", Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, "Somewhere.", res.CulturalOrigin)
	assert.False(t, res.HasConcepts())
	assert.ElementsMatch(t, []string{"key_concepts", "external_resources"}, res.Dropped)
}

func TestClient_errorDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"fastapi string", 500, `{"detail":"Error analyzing text: quota exceeded"}`, "Error analyzing text: quota exceeded"},
		{"validation list", 422, `{"detail":[{"loc":["body","text"],"msg":"field required"},{"msg":"too short"}]}`, "field required; too short"},
		{"error key", 400, `{"error":"bad input"}`, "bad input"},
		{"no body", 502, ``, ""},
		{"html body", 503, `<html>down</html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			c := NewClient(srv.URL, time.Second)
			req := &models.AnalysisRequest{Text: "long enough text", Language: "en"}
			_, err := c.Analyze(context.Background(), req)
			require.Error(t, err)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.NotEmpty(t, apiErr.RequestID)
			assert.Equal(t, tt.wantDetail, Detail(err))
		})
	}
}

func TestClient_unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second)
	_, err := c.History(context.Background(), 0, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreachable))
	assert.Equal(t, "fallback", UserMessage(err, "fallback"))
}

func TestClient_NotFound(t *testing.T) {
	backend := apitest.NewBackend()
	defer backend.Close()
	c := NewClient(backend.URL(), time.Second)

	err := c.Delete(context.Background(), "404")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Analysis with ID 404 not found", UserMessage(err, "fallback"))
}

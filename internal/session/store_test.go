package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/bunka/internal/api"
	"github.com/hyperjump/bunka/internal/api/apitest"
	"github.com/hyperjump/bunka/internal/models"
)

const passage = "Haiku is a Japanese poem of seventeen syllables!!" // 50 characters

func newTestStore(t *testing.T, opts ...Option) (*Store, *apitest.Backend) {
	t.Helper()
	backend := apitest.NewBackend()
	t.Cleanup(backend.Close)
	client := api.NewClient(backend.URL(), 5*time.Second)
	return NewStore(client, opts...), backend
}

func TestSubmit_tooShortNeverCallsService(t *testing.T) {
	for _, text := range []string{"Hi", "", "         ", "  123456789 "} {
		t.Run(text, func(t *testing.T) {
			store, backend := newTestStore(t)
			store.SetText(text)
			_, err := store.Submit(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Equal(t, 0, backend.TotalCalls())
			assert.Equal(t, MsgTextTooShort, store.Snapshot().Error)
		})
	}
}

func TestSubmit_unsupportedLanguage(t *testing.T) {
	store, backend := newTestStore(t)
	store.SetText(passage)
	store.SetLanguage("xx")
	_, err := store.Submit(context.Background())
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, MsgUnsupportedLanguage, store.Snapshot().Error)
	assert.Equal(t, 0, backend.TotalCalls())
}

func TestSubmit_successRefreshesHistoryOnce(t *testing.T) {
	require.Len(t, []rune(passage), 50)
	store, backend := newTestStore(t)
	backend.SetAnalyzer(apitest.RichAnalysis)
	backend.Seed(models.AnalysisResult{InputText: "an older analysis entry", Language: "fr"})

	require.NoError(t, store.RefreshHistory(context.Background()))
	require.Len(t, store.Snapshot().History, 1)

	store.SetText(passage)
	store.SetLanguage("en")
	res, err := store.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, backend.Calls(apitest.RouteAnalyze))
	assert.Equal(t, 2, backend.Calls(apitest.RouteHistory), "one mount fetch plus exactly one refresh")

	snap := store.Snapshot()
	require.NotNil(t, snap.Result)
	assert.Equal(t, res.ID, snap.Result.ID)
	assert.Equal(t, passage, snap.Result.InputText)
	assert.True(t, snap.Result.HasTimeline())
	assert.True(t, snap.Result.HasLearnMore())
	assert.Empty(t, snap.Error)
	assert.False(t, snap.Busy)
	require.Len(t, snap.History, 2)
	assert.Equal(t, res.ID, snap.History[0].ID, "new entry is at the top")
}

func TestSubmit_sendsTrimmedText(t *testing.T) {
	store, backend := newTestStore(t)
	_, err := store.Analyze(context.Background(), "   "+passage+"\n", "ja")
	require.NoError(t, err)
	entries := backend.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, passage, entries[0].InputText)
	assert.Equal(t, "ja", entries[0].Language)
}

func TestSubmit_failureShowsDetailOrFallback(t *testing.T) {
	store, backend := newTestStore(t)
	store.SetText(passage)

	backend.Fail(apitest.RouteAnalyze, apitest.Failure{Status: 500, Detail: "Error analyzing text: quota exceeded"})
	_, err := store.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Error analyzing text: quota exceeded", store.Snapshot().Error)
	assert.Nil(t, store.Snapshot().Result)
	assert.Equal(t, 0, backend.Calls(apitest.RouteHistory), "failed analyze must not refresh history")

	backend.Fail(apitest.RouteAnalyze, apitest.Failure{Status: 502})
	_, err = store.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgAnalyzeFailed, store.Snapshot().Error)

	store.DismissError()
	assert.Empty(t, store.Snapshot().Error)
}

func TestSubmit_unreachableShowsFallback(t *testing.T) {
	store := NewStore(api.NewClient("http://127.0.0.1:1", time.Second))
	store.SetText(passage)
	_, err := store.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrUnreachable))
	assert.Equal(t, MsgAnalyzeFailed, store.Snapshot().Error)
}

// blockingService holds Analyze until released.
type blockingService struct {
	api.Service
	started chan struct{}
	release chan struct{}
}

func (b *blockingService) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	close(b.started)
	<-b.release
	return &models.AnalysisResult{ID: "7", InputText: req.Text, Language: req.Language}, nil
}

func (b *blockingService) History(ctx context.Context, skip, limit int) ([]models.AnalysisResult, error) {
	return nil, nil
}

func TestSubmit_busyRejectsResubmission(t *testing.T) {
	svc := &blockingService{started: make(chan struct{}), release: make(chan struct{})}
	store := NewStore(svc)
	store.SetText(passage)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := store.Submit(context.Background())
		assert.NoError(t, err)
	}()
	<-svc.started
	assert.True(t, store.Snapshot().Busy)

	_, err := store.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(svc.release)
	wg.Wait()
	assert.False(t, store.Snapshot().Busy)
	assert.Equal(t, "7", store.Snapshot().Result.ID.String())
}

func TestSelect_noNetworkAndExactFields(t *testing.T) {
	store, backend := newTestStore(t)
	backend.SetAnalyzer(apitest.RichAnalysis)
	_, err := store.Analyze(context.Background(), passage, "en")
	require.NoError(t, err)
	_, err = store.Analyze(context.Background(), "The Renaissance was a period of rebirth.", "de")
	require.NoError(t, err)

	snap := store.Snapshot()
	require.Len(t, snap.History, 2)
	stored := snap.History[1]
	before := backend.TotalCalls()

	store.ToggleTimeline()
	store.ToggleHistoryPanel()
	got, err := store.Select(stored.ID.String())
	require.NoError(t, err)
	assert.Equal(t, before, backend.TotalCalls(), "select must not contact the service")
	assert.Equal(t, stored, *got)

	snap = store.Snapshot()
	assert.Equal(t, stored, *snap.Result)
	assert.Equal(t, stored.InputText, snap.Text)
	assert.Equal(t, "en", snap.Language)
	assert.False(t, snap.ShowHistory)
	assert.False(t, snap.View.TimelineExpanded, "view state resets on load")

	_, err = store.Select("does-not-exist")
	assert.ErrorIs(t, err, ErrNotInHistory)
}

func TestDelete_clearsOnlyDisplayedEntry(t *testing.T) {
	store, backend := newTestStore(t)
	first, err := store.Analyze(context.Background(), passage, "en")
	require.NoError(t, err)
	second, err := store.Analyze(context.Background(), "Another passage about the Silk Road.", "en")
	require.NoError(t, err)
	require.Equal(t, second.ID, store.Snapshot().Result.ID)

	historyCalls := backend.Calls(apitest.RouteHistory)
	require.NoError(t, store.Delete(context.Background(), first.ID.String()))
	snap := store.Snapshot()
	require.NotNil(t, snap.Result, "deleting another entry leaves the view")
	assert.Equal(t, second.ID, snap.Result.ID)
	assert.Len(t, snap.History, 1)
	assert.Equal(t, historyCalls+1, backend.Calls(apitest.RouteHistory))

	require.NoError(t, store.Delete(context.Background(), second.ID.String()))
	snap = store.Snapshot()
	assert.Nil(t, snap.Result, "deleting the displayed entry clears the view")
	assert.Empty(t, snap.History)
}

func TestDelete_failureIsQuiet(t *testing.T) {
	store, backend := newTestStore(t)
	res, err := store.Analyze(context.Background(), passage, "en")
	require.NoError(t, err)
	backend.Fail(apitest.RouteDelete, apitest.Failure{Status: 500, Detail: "boom"})

	err = store.Delete(context.Background(), res.ID.String())
	require.Error(t, err)
	snap := store.Snapshot()
	assert.Empty(t, snap.Error, "delete failures are not surfaced")
	assert.NotNil(t, snap.Result)
}

func TestRefreshHistory_failureKeepsList(t *testing.T) {
	store, backend := newTestStore(t)
	_, err := store.Analyze(context.Background(), passage, "en")
	require.NoError(t, err)
	backend.Fail(apitest.RouteHistory, apitest.Failure{Status: 503})

	assert.Error(t, store.RefreshHistory(context.Background()))
	snap := store.Snapshot()
	assert.Len(t, snap.History, 1)
	assert.Empty(t, snap.Error)
}

type recordingSink struct {
	mu    sync.Mutex
	saved [][]models.AnalysisResult
}

func (r *recordingSink) SaveHistory(_ context.Context, entries []models.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, entries)
	return nil
}

func TestAsyncRefreshAndSink(t *testing.T) {
	sink := &recordingSink{}
	store, backend := newTestStore(t, WithAsyncRefresh(), WithHistorySink(sink), WithHistoryLimit(1))
	_, err := store.Analyze(context.Background(), passage, "en")
	require.NoError(t, err)
	_, err = store.Analyze(context.Background(), "A second passage about Byzantium.", "en")
	require.NoError(t, err)
	store.Wait()

	assert.Equal(t, 2, backend.Calls(apitest.RouteHistory))
	assert.Len(t, store.Snapshot().History, 1, "history limit is honored")
	sink.mu.Lock()
	assert.Len(t, sink.saved, 2)
	sink.mu.Unlock()
}

func TestViewToggles(t *testing.T) {
	store := NewStore(nil)
	v := store.Snapshot().View
	assert.Equal(t, NoConcept, v.ExpandedConcept)

	store.ToggleTimeline()
	store.ToggleMap()
	store.ToggleConcept(2)
	v = store.Snapshot().View
	assert.True(t, v.TimelineExpanded)
	assert.True(t, v.MapExpanded)
	assert.True(t, v.ConceptExpanded(2))

	store.ToggleConcept(1)
	assert.True(t, store.Snapshot().View.ConceptExpanded(1), "opening one explainer closes the other")
	store.ToggleConcept(1)
	assert.Equal(t, NoConcept, store.Snapshot().View.ExpandedConcept)

	store.ToggleConcept(0)
	store.CloseConcept()
	assert.Equal(t, NoConcept, store.Snapshot().View.ExpandedConcept)

	store.Show(&models.AnalysisResult{ID: "1"})
	v = store.Snapshot().View
	assert.False(t, v.TimelineExpanded || v.MapExpanded, "loading a result resets panels")
}

func TestUseExample(t *testing.T) {
	store := NewStore(nil)
	require.NoError(t, store.UseExample(1))
	assert.True(t, strings.HasPrefix(store.Snapshot().Text, "Haiku"))
	assert.ErrorIs(t, store.UseExample(3), ErrNoExample)
}

func TestSubscribe(t *testing.T) {
	store := NewStore(nil)
	ch, cancel := store.Subscribe()
	store.SetText("x")
	store.SetText("y")
	select {
	case <-ch:
	default:
		t.Fatal("expected a change signal")
	}
	cancel()
	store.SetText("z")
	select {
	case <-ch:
		t.Fatal("no signal after unsubscribe")
	default:
	}
	assert.Equal(t, "z", store.Snapshot().Text)
}

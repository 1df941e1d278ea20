// Package session holds the view state shared by the CLI and the browser UI:
// the analysis form, the displayed result, panel toggles and the history list.
// Store is the only place that state changes; front ends call its event
// methods and render from Snapshot.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/bunka/internal/api"
	"github.com/hyperjump/bunka/internal/models"
)

// User-facing messages.
const (
	MsgTextTooShort        = "Please enter at least 10 characters of text to analyze."
	MsgUnsupportedLanguage = "Please choose one of the supported languages."
	MsgAnalyzeFailed       = "Failed to analyze text. Please check your API connection and try again."
)

var (
	// ErrValidation wraps local form validation failures. No request is sent.
	ErrValidation = errors.New("validation failed")
	// ErrBusy is returned by Submit while another analysis is in flight.
	ErrBusy = errors.New("an analysis is already in progress")
	// ErrNotInHistory is returned by Select for an id missing from the fetched list.
	ErrNotInHistory = errors.New("entry not in history")
	// ErrNoExample is returned by UseExample for an out-of-range index.
	ErrNoExample = errors.New("no such example")
)

// NoConcept is ViewState.ExpandedConcept when no explainer is open.
const NoConcept = -1

// ViewState is the ephemeral expand/collapse state of the result view.
// It resets whenever a new result is loaded.
type ViewState struct {
	TimelineExpanded bool `json:"timeline_expanded"`
	MapExpanded      bool `json:"map_expanded"`
	ExpandedConcept  int  `json:"expanded_concept"`
}

// ConceptExpanded reports whether the explainer for concept i is open.
func (v ViewState) ConceptExpanded(i int) bool { return v.ExpandedConcept == i }

func freshView() ViewState { return ViewState{ExpandedConcept: NoConcept} }

// HistorySink receives every successfully fetched history list.
type HistorySink interface {
	SaveHistory(ctx context.Context, entries []models.AnalysisResult) error
}

// Snapshot is a read-only copy of the store for rendering.
type Snapshot struct {
	Text        string                  `json:"text"`
	Language    string                  `json:"language"`
	Busy        bool                    `json:"busy"`
	Error       string                  `json:"error,omitempty"`
	Result      *models.AnalysisResult  `json:"result,omitempty"`
	History     []models.AnalysisResult `json:"history"`
	ShowHistory bool                    `json:"show_history"`
	View        ViewState               `json:"view"`
	Version     uint64                  `json:"version"`
}

// Store is the view-state store. All methods are safe for concurrent use.
type Store struct {
	svc          api.Service
	logger       *zap.Logger
	historyLimit int
	asyncRefresh bool
	sink         HistorySink

	mu          sync.Mutex
	text        string
	language    string
	busy        bool
	errMsg      string
	result      *models.AnalysisResult
	history     []models.AnalysisResult
	showHistory bool
	view        ViewState
	version     uint64

	subMu   sync.Mutex
	subs    map[int]chan struct{}
	nextSub int

	background sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for history diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithHistoryLimit sets the page size of history fetches.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithAsyncRefresh makes post-mutation history refreshes run in the
// background instead of before the mutating call returns.
func WithAsyncRefresh() Option {
	return func(s *Store) { s.asyncRefresh = true }
}

// WithHistorySink registers a sink for fetched history lists.
func WithHistorySink(sink HistorySink) Option {
	return func(s *Store) { s.sink = sink }
}

// WithHistory seeds the history list, e.g. from a saved snapshot. Entries
// beyond the history limit are left out.
func WithHistory(entries []models.AnalysisResult) Option {
	return func(s *Store) { s.history = append([]models.AnalysisResult(nil), entries...) }
}

// WithLanguage sets the initial form language.
func WithLanguage(code string) Option {
	return func(s *Store) {
		if code != "" {
			s.language = code
		}
	}
}

// NewStore returns a store backed by svc.
func NewStore(svc api.Service, opts ...Option) *Store {
	s := &Store{
		svc:          svc,
		logger:       zap.NewNop(),
		historyLimit: 10,
		language:     models.DefaultLanguage,
		view:         freshView(),
		subs:         make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.history) > s.historyLimit {
		s.history = s.history[:s.historyLimit]
	}
	return s
}

// SetText replaces the form text.
func (s *Store) SetText(text string) {
	s.mu.Lock()
	s.text = text
	s.changedLocked()
	s.mu.Unlock()
}

// SetLanguage replaces the form language. It is validated on submit.
func (s *Store) SetLanguage(code string) {
	s.mu.Lock()
	s.language = code
	s.changedLocked()
	s.mu.Unlock()
}

// UseExample loads example passage i into the form.
func (s *Store) UseExample(i int) error {
	if i < 0 || i >= len(models.ExampleTexts) {
		return fmt.Errorf("%w: %d", ErrNoExample, i+1)
	}
	s.SetText(models.ExampleTexts[i])
	return nil
}

// Submit validates the form and sends it for analysis. Validation failures
// set the inline message and return an error wrapping ErrValidation without
// contacting the service. On success the result replaces the current one and
// history is refreshed once. On failure the inline message is the server's
// detail, or MsgAnalyzeFailed when there is none.
func (s *Store) Submit(ctx context.Context) (*models.AnalysisResult, error) {
	req, err := s.begin()
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, req)
}

// Analyze sets the form and submits it.
func (s *Store) Analyze(ctx context.Context, text, language string) (*models.AnalysisResult, error) {
	s.setForm(text, language)
	return s.Submit(ctx)
}

// AnalyzeAsync sets the form, validates it and marks the store busy before
// returning, then sends the request in the background. Validation failures
// and ErrBusy are returned directly. The outcome of the request is reported
// on the returned channel, which is closed afterwards; Wait also covers it.
func (s *Store) AnalyzeAsync(ctx context.Context, text, language string) (<-chan error, error) {
	s.setForm(text, language)
	req, err := s.begin()
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer close(done)
		_, err := s.finish(ctx, req)
		done <- err
	}()
	return done, nil
}

func (s *Store) setForm(text, language string) {
	s.mu.Lock()
	s.text = text
	if language != "" {
		s.language = language
	}
	s.mu.Unlock()
}

// begin validates the form and enters the busy state.
func (s *Store) begin() (*models.AnalysisRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return nil, ErrBusy
	}
	req, err := models.NewAnalysisRequest(s.text, s.language)
	if err != nil {
		if errors.Is(err, models.ErrUnsupportedLanguage) {
			s.errMsg = MsgUnsupportedLanguage
		} else {
			s.errMsg = MsgTextTooShort
		}
		s.changedLocked()
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	s.busy = true
	s.errMsg = ""
	s.result = nil
	s.changedLocked()
	return req, nil
}

// finish sends req and leaves the busy state.
func (s *Store) finish(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	res, err := s.svc.Analyze(ctx, req)

	s.mu.Lock()
	s.busy = false
	if err != nil {
		s.errMsg = api.UserMessage(err, MsgAnalyzeFailed)
		s.changedLocked()
		s.mu.Unlock()
		s.logger.Warn("analyze failed", zap.Error(err))
		return nil, err
	}
	s.result = res
	s.view = freshView()
	s.changedLocked()
	s.mu.Unlock()

	s.refreshAfterMutation(ctx)
	return res, nil
}

// RefreshHistory fetches the history list. Failures are logged and leave the
// current list in place; the returned error is for diagnostics only.
func (s *Store) RefreshHistory(ctx context.Context) error {
	entries, err := s.svc.History(ctx, 0, s.historyLimit)
	if err != nil {
		s.logger.Warn("fetch history failed", zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.history = entries
	s.changedLocked()
	s.mu.Unlock()

	if s.sink != nil {
		if err := s.sink.SaveHistory(ctx, entries); err != nil {
			s.logger.Warn("save history snapshot failed", zap.Error(err))
		}
	}
	return nil
}

func (s *Store) refreshAfterMutation(ctx context.Context) {
	if !s.asyncRefresh {
		_ = s.RefreshHistory(ctx)
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		_ = s.RefreshHistory(context.WithoutCancel(ctx))
	}()
}

// Wait blocks until background analyses and history refreshes have finished.
func (s *Store) Wait() { s.background.Wait() }

// Select loads a history entry into the result view from the fetched list,
// without contacting the service. The form is restored to the entry's text
// and language and the history panel is hidden.
func (s *Store) Select(id string) (*models.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID.String() != id {
			continue
		}
		entry := s.history[i]
		s.result = &entry
		s.text = entry.InputText
		s.language = entry.Language
		s.view = freshView()
		s.showHistory = false
		s.changedLocked()
		return &entry, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotInHistory, id)
}

// Show replaces the displayed result, e.g. with one fetched by id.
func (s *Store) Show(res *models.AnalysisResult) {
	s.mu.Lock()
	s.result = res
	s.view = freshView()
	s.changedLocked()
	s.mu.Unlock()
}

// Delete removes an entry on the service, clears the result view if that
// entry is displayed, and refreshes history. Failures are logged only.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.svc.Delete(ctx, id); err != nil {
		s.logger.Warn("delete analysis failed", zap.String("id", id), zap.Error(err))
		return err
	}
	s.mu.Lock()
	if s.result != nil && s.result.ID.String() == id {
		s.result = nil
		s.view = freshView()
		s.changedLocked()
	}
	s.mu.Unlock()

	s.refreshAfterMutation(ctx)
	return nil
}

// ToggleTimeline expands or collapses the timeline panel.
func (s *Store) ToggleTimeline() {
	s.mu.Lock()
	s.view.TimelineExpanded = !s.view.TimelineExpanded
	s.changedLocked()
	s.mu.Unlock()
}

// ToggleMap expands or collapses the geographic panel.
func (s *Store) ToggleMap() {
	s.mu.Lock()
	s.view.MapExpanded = !s.view.MapExpanded
	s.changedLocked()
	s.mu.Unlock()
}

// ToggleConcept opens the explainer for concept i, or closes it if it is
// already open. Opening one explainer closes any other.
func (s *Store) ToggleConcept(i int) {
	s.mu.Lock()
	if s.view.ExpandedConcept == i {
		s.view.ExpandedConcept = NoConcept
	} else {
		s.view.ExpandedConcept = i
	}
	s.changedLocked()
	s.mu.Unlock()
}

// CloseConcept closes any open explainer.
func (s *Store) CloseConcept() {
	s.mu.Lock()
	s.view.ExpandedConcept = NoConcept
	s.changedLocked()
	s.mu.Unlock()
}

// ToggleHistoryPanel shows or hides the history list.
func (s *Store) ToggleHistoryPanel() {
	s.mu.Lock()
	s.showHistory = !s.showHistory
	s.changedLocked()
	s.mu.Unlock()
}

// DismissError clears the inline error message.
func (s *Store) DismissError() {
	s.mu.Lock()
	s.errMsg = ""
	s.changedLocked()
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Text:        s.text,
		Language:    s.language,
		Busy:        s.busy,
		Error:       s.errMsg,
		History:     append([]models.AnalysisResult{}, s.history...),
		ShowHistory: s.showHistory,
		View:        s.view,
		Version:     s.version,
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

// Subscribe returns a channel that receives a signal after state changes.
// Signals coalesce; receivers should read Snapshot after each one. Call the
// returned function to unsubscribe.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()
	return ch, func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// changedLocked bumps the version and signals subscribers. s.mu must be held.
func (s *Store) changedLocked() {
	s.version++
	s.subMu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.subMu.Unlock()
}

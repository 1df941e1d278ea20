package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/bunka/internal/session"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := s.pageData(s.store.Snapshot())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("render page failed", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleAnalyze validates the form, starts the analysis in the background
// and redirects at once, so the page renders the busy state. The live socket
// reloads the page when the result or error lands. Validation errors are in
// the store's inline message before the redirect.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid form")
		return
	}
	done, err := s.store.AnalyzeAsync(context.WithoutCancel(r.Context()), r.PostForm.Get("text"), r.PostForm.Get("language"))
	switch {
	case err == nil:
		go func() {
			if err := <-done; err != nil {
				s.logger.Debug("analyze failed", zap.Error(err))
			}
		}()
	case errors.Is(err, session.ErrBusy):
		s.logger.Debug("analyze ignored while busy")
	default:
		s.logger.Debug("analyze rejected", zap.Error(err))
	}
	s.redirectHome(w, r)
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid example number")
		return
	}
	if err := s.store.UseExample(n - 1); err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.redirectHome(w, r)
}

// handleLanguage stores the selected language, and the draft text when
// sent along, so both survive page reloads.
func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid form")
		return
	}
	if r.PostForm.Has("text") {
		s.store.SetText(r.PostForm.Get("text"))
	}
	s.store.SetLanguage(r.PostForm.Get("language"))
	s.redirectHome(w, r)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.store.DismissError()
	s.redirectHome(w, r)
}

func (s *Server) handleHistoryRefresh(w http.ResponseWriter, r *http.Request) {
	_ = s.store.RefreshHistory(r.Context())
	s.redirectHome(w, r)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Select(id); err != nil {
		s.respondError(w, http.StatusNotFound, "analysis not in history")
		return
	}
	s.redirectHome(w, r)
}

// handleDelete never reports a service failure to the page; the entry
// simply stays in the list.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete analysis request", zap.String("id", id))
	_ = s.store.Delete(r.Context(), id)
	s.redirectHome(w, r)
}

func (s *Server) handleToggle(toggle func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		toggle()
		s.redirectHome(w, r)
	}
}

func (s *Server) handleToggleConcept(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "i"))
	if err != nil || i < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid concept index")
		return
	}
	s.store.ToggleConcept(i)
	s.redirectHome(w, r)
}

func (s *Server) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

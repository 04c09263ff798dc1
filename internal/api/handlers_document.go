package api

import (
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleDocumentInfo(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		jsonError(w, errNotInitialized, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_loaded": s.session.Loaded(),
		"document_length": utf8.RuneCountInString(s.session.Text()),
		"document_path":   s.session.Path(),
	})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		jsonError(w, errNotInitialized, http.StatusInternalServerError)
		return
	}
	run := s.session.Run(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run.Snapshot())
}

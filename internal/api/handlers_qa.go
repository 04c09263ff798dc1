package api

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/qagen/internal/extract"
	"github.com/dgallion1/qagen/internal/pipeline"
)

const errNotInitialized = "RAG system not initialized"

// Parameter ranges for the generation endpoints.
const (
	minQuestions = 1
	maxQuestions = 20
	minChunkSize = 1000
	maxChunkSize = 16000

	defaultQuestions         = 5
	defaultQuestionsPerChunk = 3
	defaultChunkSize         = 8000
	defaultOverlap           = 200
)

type qaParams struct {
	Questions int `validate:"min=1,max=20"`
}

type chunkedParams struct {
	QuestionsPerChunk int `validate:"min=1,max=20"`
	ChunkSize         int `validate:"min=1000,max=16000"`
	Overlap           int `validate:"min=0,ltfield=ChunkSize"`
}

// paramMessages maps a failing field to the message returned to the caller.
var paramMessages = map[string]string{
	"Questions":         fmt.Sprintf("questions parameter must be between %d and %d", minQuestions, maxQuestions),
	"QuestionsPerChunk": fmt.Sprintf("questions_per_chunk must be between %d and %d", minQuestions, maxQuestions),
	"ChunkSize":         fmt.Sprintf("chunk_size must be between %d and %d", minChunkSize, maxChunkSize),
	"Overlap":           "overlap must be between 0 and chunk_size-1",
}

// validateParams returns the message for the first invalid field, or "".
func (s *Server) validateParams(v any) string {
	err := s.validate.Struct(v)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := paramMessages[verrs[0].StructField()]; ok {
			return msg
		}
	}
	return err.Error()
}

// queryInt reads an integer query parameter, falling back to def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func (s *Server) handleGenerateQA(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		jsonError(w, errNotInitialized, http.StatusInternalServerError)
		return
	}

	n, err := queryInt(r, "questions", defaultQuestions)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg := s.validateParams(qaParams{Questions: n}); msg != "" {
		jsonError(w, msg, http.StatusBadRequest)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	records, err := s.session.GenerateQA(ctx, n)
	if err != nil {
		s.generationError(w, err, nil)
		return
	}

	records = nonNil(records)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"count":    len(records),
		"qa_pairs": records,
	})
}

func (s *Server) handleGenerateQAChunked(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		jsonError(w, errNotInitialized, http.StatusInternalServerError)
		return
	}

	var p chunkedParams
	var err error
	if p.QuestionsPerChunk, err = queryInt(r, "questions_per_chunk", defaultQuestionsPerChunk); err == nil {
		if p.ChunkSize, err = queryInt(r, "chunk_size", defaultChunkSize); err == nil {
			p.Overlap, err = queryInt(r, "overlap", defaultOverlap)
		}
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg := s.validateParams(p); msg != "" {
		jsonError(w, msg, http.StatusBadRequest)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	res, err := s.session.GenerateChunked(ctx, pipeline.ChunkedRequest{
		QuestionsPerChunk: p.QuestionsPerChunk,
		ChunkSize:         p.ChunkSize,
		Overlap:           p.Overlap,
	})
	if err != nil {
		var partial map[string]any
		if res != nil {
			// Interrupted runs stay inspectable through /api/runs/{runID}.
			partial = map[string]any{
				"run_id":   res.RunID,
				"count":    len(res.Records),
				"qa_pairs": nonNil(res.Records),
			}
		}
		s.generationError(w, err, partial)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"count":     len(res.Records),
		"qa_pairs":  nonNil(res.Records),
		"run_id":    res.RunID,
		"chunks":    res.Chunks,
		"truncated": res.Truncated,
		"errors":    res.Ledger,
	})
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.cfg.RequestTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
}

// generationError maps a generation failure to a status code. Fields in extra
// are added to the error body.
func (s *Server) generationError(w http.ResponseWriter, err error, extra map[string]any) {
	code := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		s.log.Warn("generation timed out", "error", err)
		code = http.StatusGatewayTimeout
		msg = "Request timeout: " + msg
	case errors.Is(err, pipeline.ErrInvalidRequest):
		code = http.StatusBadRequest
	default:
		s.log.Error("generation failed", "error", err)
	}

	body := map[string]any{"error": msg}
	maps.Copy(body, extra)
	writeJSON(w, code, body)
}

func nonNil(records []extract.Record) []extract.Record {
	if records == nil {
		return []extract.Record{}
	}
	return records
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dgallion1/qagen/internal/chunker"
	"github.com/dgallion1/qagen/internal/config"
	"github.com/dgallion1/qagen/internal/extract"
	"github.com/dgallion1/qagen/internal/metrics"
)

var (
	// ErrNoDocument is returned when generation is requested before a
	// document has been loaded.
	ErrNoDocument = errors.New("no document loaded")
	// ErrInvalidRequest is returned for out-of-range generation parameters.
	ErrInvalidRequest = errors.New("invalid generation request")
)

// Options tunes a Session.
type Options struct {
	MaxPromptChars    int
	MaxChunks         int
	ChunkRetries      int
	Retry             RetryPolicy
	CallDelay         time.Duration
	MaxConcurrentRuns int
	RunTTL            time.Duration
	CleanupInterval   time.Duration
}

// OptionsFromConfig maps service configuration onto session options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		MaxPromptChars: cfg.MaxPromptChars,
		MaxChunks:      cfg.MaxChunks,
		ChunkRetries:   cfg.ChunkRetries,
		Retry: RetryPolicy{
			BaseWait: cfg.RetryBaseWait,
			MaxWait:  cfg.MaxRetryWait,
		},
		CallDelay:         cfg.APICallDelay,
		MaxConcurrentRuns: cfg.MaxConcurrentRuns,
		RunTTL:            cfg.RunTTL,
	}
}

// ChunkedRequest holds the caller-supplied parameters of a chunked run.
type ChunkedRequest struct {
	QuestionsPerChunk int `json:"questions_per_chunk"`
	ChunkSize         int `json:"chunk_size"`
	Overlap           int `json:"overlap"`
}

// ChunkError is a ledger entry for a chunk that exhausted its retries.
// ChunkIndex is 0-based.
type ChunkError struct {
	ChunkIndex int    `json:"chunk_index"`
	Attempts   int    `json:"attempts"`
	Message    string `json:"message"`
}

// RunResult is the aggregate of a chunked run. Records are in chunk order,
// and within a chunk in reply order.
type RunResult struct {
	RunID     string
	Records   []extract.Record
	Ledger    []ChunkError
	Chunks    int
	Truncated bool
}

// Session holds the loaded document and runs generation against it. The
// document text is fixed for the session's lifetime.
type Session struct {
	path string
	text string

	runner  *ChunkRunner
	opts    Options
	runs    *RunStore
	sem     *semaphore.Weighted
	log     *slog.Logger
	metrics *metrics.Metrics

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates a session over text loaded from path. An empty text
// yields a session that rejects generation with ErrNoDocument.
func NewSession(path, text string, gen Generator, opts Options, log *slog.Logger, m *metrics.Metrics) *Session {
	if opts.MaxConcurrentRuns < 1 {
		opts.MaxConcurrentRuns = 1
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = 5 * time.Minute
	}
	return &Session{
		path:    path,
		text:    text,
		runner:  NewChunkRunner(gen, opts.Retry, opts.MaxPromptChars, opts.CallDelay, log, m),
		opts:    opts,
		runs:    NewRunStore(opts.RunTTL),
		sem:     semaphore.NewWeighted(int64(opts.MaxConcurrentRuns)),
		log:     log,
		metrics: m,
	}
}

// Text returns the loaded document text.
func (s *Session) Text() string { return s.text }

// Path returns where the document was loaded from.
func (s *Session) Path() string { return s.path }

// Loaded reports whether a non-empty document is available.
func (s *Session) Loaded() bool { return s.text != "" }

// Run returns a tracked chunked run by ID, or nil.
func (s *Session) Run(id string) *Run { return s.runs.Get(id) }

// Start launches the run registry cleanup loop.
func (s *Session) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.opts.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := s.runs.Cleanup(now); n > 0 {
					s.log.Debug("evicted expired runs", "count", n)
				}
			}
		}
	}()
}

// Stop ends the cleanup loop.
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Session) acquire(ctx context.Context) (func(), error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for generation slot: %w", err)
	}
	done := s.metrics.RunStarted()
	return func() {
		done()
		s.sem.Release(1)
	}, nil
}

// GenerateQA makes one generation call over the document prefix and returns
// the parsed pairs. Failures are returned without retrying.
func (s *Session) GenerateQA(ctx context.Context, numQuestions int) ([]extract.Record, error) {
	if !s.Loaded() {
		return nil, ErrNoDocument
	}
	if numQuestions < 1 {
		return nil, fmt.Errorf("%w: questions must be positive, got %d", ErrInvalidRequest, numQuestions)
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	records, err := s.runner.Generate(ctx, s.text, numQuestions)
	if err != nil {
		s.log.Error("single generation failed", "questions", numQuestions, "error", err)
		return nil, fmt.Errorf("generate qa: %w", err)
	}
	s.metrics.RecordPairs("single", len(records))
	s.log.Info("generated qa pairs", "requested", numQuestions, "count", len(records))
	return records, nil
}

// GenerateChunked splits the document and generates pairs for every chunk in
// order. A chunk that exhausts its retries is recorded in the ledger and the
// run continues. If ctx ends mid-run, or the request limiter cannot start a
// call before the deadline, the partial result is returned with an error
// wrapping the context error.
func (s *Session) GenerateChunked(ctx context.Context, req ChunkedRequest) (*RunResult, error) {
	if !s.Loaded() {
		return nil, ErrNoDocument
	}
	if req.QuestionsPerChunk < 1 {
		return nil, fmt.Errorf("%w: questions_per_chunk must be positive, got %d", ErrInvalidRequest, req.QuestionsPerChunk)
	}

	split, err := chunker.Split(s.text, chunker.Config{
		MaxChars:  req.ChunkSize,
		Overlap:   req.Overlap,
		MaxChunks: s.opts.MaxChunks,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	run := newRun(req)
	s.runs.Put(run)
	run.SetChunking(len(split.Chunks), split.Truncated)

	log := s.log.With("run_id", run.ID)
	log.Info("chunked document",
		"chunks", len(split.Chunks),
		"chunk_size", req.ChunkSize,
		"overlap", req.Overlap,
		"questions_per_chunk", req.QuestionsPerChunk,
	)
	if split.Truncated {
		s.metrics.RecordTruncated()
		log.Warn("chunk limit reached, tail of document not processed", "max_chunks", s.opts.MaxChunks)
	}

	result := &RunResult{
		RunID:     run.ID,
		Records:   []extract.Record{},
		Ledger:    []ChunkError{},
		Chunks:    len(split.Chunks),
		Truncated: split.Truncated,
	}

	for _, c := range split.Chunks {
		if err := ctx.Err(); err != nil {
			return result, s.interrupt(run, log, err)
		}

		clog := log.With("chunk", c.Index)
		clog.Info("processing chunk",
			"position", fmt.Sprintf("%d/%d", c.Index+1, len(split.Chunks)),
			"chars", c.End-c.Start,
			"approx_tokens", chunker.EstimateTokens(c.Text),
		)

		out := s.runner.With(clog).GenerateWithRetry(ctx, c.Text, req.QuestionsPerChunk, s.opts.ChunkRetries)
		s.metrics.RecordChunk(string(out.Status), out.Attempts)

		if out.Status == ChunkExhausted {
			if cause := interruption(ctx, out.Err); cause != nil {
				return result, s.interrupt(run, log, cause)
			}
			entry := ChunkError{
				ChunkIndex: c.Index,
				Attempts:   out.Attempts,
				Message:    out.Err.Error(),
			}
			result.Ledger = append(result.Ledger, entry)
			run.AddError(entry)
			run.ChunkDone(0)
			continue
		}

		result.Records = append(result.Records, out.Records...)
		run.ChunkDone(len(out.Records))
		clog.Info("chunk complete", "pairs", len(out.Records), "attempts", out.Attempts)
	}

	status := run.Finish()
	s.metrics.RecordPairs("chunked", len(result.Records))
	log.Info("chunked run finished",
		"status", status,
		"pairs", len(result.Records),
		"failed_chunks", len(result.Ledger),
	)
	return result, nil
}

func (s *Session) interrupt(run *Run, log *slog.Logger, cause error) error {
	run.SetStatus(RunFailed, "interrupted")
	log.Warn("chunked run interrupted", "error", cause)
	return fmt.Errorf("chunked run %s interrupted: %w", run.ID, cause)
}

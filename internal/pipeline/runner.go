package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dgallion1/qagen/internal/extract"
	"github.com/dgallion1/qagen/internal/metrics"
)

// Generator is the text-generation primitive. *extract.ClaudeClient satisfies it.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChunkStatus is the final outcome of generating pairs for one chunk.
type ChunkStatus string

const (
	ChunkSucceeded ChunkStatus = "success"
	ChunkExhausted ChunkStatus = "exhausted"
)

// ChunkOutcome reports what happened to one chunk. Err is the last error seen
// and is only set when Status is ChunkExhausted.
type ChunkOutcome struct {
	Records  []extract.Record
	Attempts int
	Status   ChunkStatus
	Err      error
}

// ChunkRunner turns one piece of text into Q&A records, retrying failed
// generation calls with exponential backoff.
type ChunkRunner struct {
	gen     Generator
	log     *slog.Logger
	metrics *metrics.Metrics

	maxPromptChars int
	callDelay      time.Duration
	policy         RetryPolicy
}

func NewChunkRunner(gen Generator, policy RetryPolicy, maxPromptChars int, callDelay time.Duration, log *slog.Logger, m *metrics.Metrics) *ChunkRunner {
	return &ChunkRunner{
		gen:            gen,
		log:            log,
		metrics:        m,
		maxPromptChars: maxPromptChars,
		callDelay:      callDelay,
		policy:         policy,
	}
}

// With returns a copy of the runner that logs through log.
func (r *ChunkRunner) With(log *slog.Logger) *ChunkRunner {
	c := *r
	c.log = log
	return &c
}

// Generate makes a single generation call for text and parses the reply.
// After a successful call it pauses for the configured call delay.
func (r *ChunkRunner) Generate(ctx context.Context, text string, numQuestions int) ([]extract.Record, error) {
	prompt := extract.BuildQAPrompt(text, numQuestions, r.maxPromptChars)

	start := time.Now()
	raw, err := r.gen.Complete(ctx, prompt)
	r.metrics.RecordGenerationCall(err, time.Since(start))
	if err != nil {
		return nil, err
	}

	records := extract.ParseQA(raw)
	r.log.Debug("generation call complete", "pairs", len(records), "duration_ms", time.Since(start).Milliseconds())

	// A cancelled delay only ends the pause early; the reply is already in hand.
	_ = sleepCtx(ctx, r.callDelay)
	return records, nil
}

// GenerateWithRetry generates pairs for chunkText, making at most
// maxRetries+1 attempts. Every generation error is retried; an error that
// interrupts the run (see interruption) ends the loop at once. A reply with
// no parseable pairs counts as success.
func (r *ChunkRunner) GenerateWithRetry(ctx context.Context, chunkText string, numQuestions, maxRetries int) ChunkOutcome {
	var out ChunkOutcome

	err := retry.Do(ctx, r.policy.backoff(maxRetries), func(ctx context.Context) error {
		out.Attempts++
		records, err := r.Generate(ctx, chunkText, numQuestions)
		if err != nil {
			if cause := interruption(ctx, err); cause != nil {
				return cause
			}
			if out.Attempts <= maxRetries {
				var rerr *extract.RetryableError
				r.log.Warn("generation failed, retrying",
					"attempt", out.Attempts,
					"max_attempts", maxRetries+1,
					"wait", r.policy.Wait(out.Attempts).String(),
					"transient", errors.As(err, &rerr),
					"error", err,
				)
			}
			return retry.RetryableError(err)
		}
		out.Records = records
		return nil
	})
	if err != nil {
		r.log.Error("generation failed, giving up", "attempts", out.Attempts, "error", err)
		out.Status = ChunkExhausted
		out.Err = err
		out.Records = nil
		return out
	}

	out.Status = ChunkSucceeded
	return out
}

// interruption returns the error that should end a chunked run early: the
// context's own error, or a limiter refusal meaning no call can start before
// the deadline. It returns nil for ordinary generation failures.
func interruption(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	var rl *extract.RateLimitError
	if errors.As(err, &rl) {
		return err
	}
	return nil
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeGenerator answers prompts through fn and records every prompt it sees.
type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	fn      func(call int, prompt string) (string, error)
}

func (f *fakeGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	call := len(f.prompts)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.fn(call, prompt)
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{BaseWait: time.Millisecond, MaxWait: 4 * time.Millisecond}
}

func testOptions() Options {
	return Options{
		MaxPromptChars:    8000,
		MaxChunks:         100,
		ChunkRetries:      2,
		Retry:             fastPolicy(),
		MaxConcurrentRuns: 2,
		RunTTL:            time.Hour,
	}
}

func newTestSession(t *testing.T, text string, gen Generator) *Session {
	t.Helper()
	return NewSession("doc.txt", text, gen, testOptions(), discardLogger(), nil)
}

// documentOf returns the document part of a generation prompt.
func documentOf(prompt string) string {
	_, doc, _ := strings.Cut(prompt, "Document:\n")
	return doc
}

package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned when chunk limits are inconsistent.
var ErrInvalidConfig = errors.New("invalid chunker config")

// Config controls chunking behavior. All sizes count characters (runes).
type Config struct {
	MaxChars  int // Upper bound on a chunk window.
	Overlap   int // Characters re-read at the start of the next window.
	MaxChunks int // Safety ceiling on the number of chunks.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxChars:  8000,
		Overlap:   200,
		MaxChunks: 100,
	}
}

func (c Config) validate() error {
	if c.MaxChars <= 0 {
		return fmt.Errorf("%w: max chars must be > 0, got %d", ErrInvalidConfig, c.MaxChars)
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxChars {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidConfig, c.MaxChars, c.Overlap)
	}
	if c.MaxChunks < 1 {
		return fmt.Errorf("%w: max chunks must be >= 1, got %d", ErrInvalidConfig, c.MaxChunks)
	}
	return nil
}

// Chunk is a trimmed window of the source text.
type Chunk struct {
	Index int    // Sequence number within the document.
	Text  string // Trimmed window text, never empty.
	Start int    // Rune offset where the window starts.
	End   int    // Rune offset just past the window end.
}

// Result is the output of Split.
type Result struct {
	Chunks []Chunk
	// Truncated reports that MaxChunks stopped chunking before the end of the text.
	Truncated bool
}

// Split breaks text into overlapping windows of at most cfg.MaxChars characters.
// When text remains after a window, the window is shortened to end just after the
// last '.' inside it, so sentences are not cut in half.
func Split(text string, cfg Config) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	runes := []rune(text)
	n := len(runes)
	var res Result

	start := 0
	for start < n {
		if len(res.Chunks) >= cfg.MaxChunks {
			res.Truncated = true
			break
		}

		end := min(start+cfg.MaxChars, n)
		if end < n {
			if p := lastPeriod(runes, start, end); p > start {
				end = p + 1
			}
		}

		if t := strings.TrimSpace(string(runes[start:end])); t != "" {
			res.Chunks = append(res.Chunks, Chunk{
				Index: len(res.Chunks),
				Text:  t,
				Start: start,
				End:   end,
			})
		}

		if end >= n {
			break
		}

		// The +1 floor keeps the cursor moving when overlap eats the whole window.
		start = max(end-cfg.Overlap, start+1)
	}

	return res, nil
}

// lastPeriod returns the index of the last '.' in runes[from:to], or -1.
func lastPeriod(runes []rune, from, to int) int {
	for i := to - 1; i >= from; i-- {
		if runes[i] == '.' {
			return i
		}
	}
	return -1
}

// EstimateTokens gives a rough token count (~1.33 tokens per word), used for logging.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := int(float64(len(strings.Fields(text))) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

package pipeline

import (
	"strings"
	"testing"
	"time"
)

func TestRunID_Format(t *testing.T) {
	id := newRunID()
	if len(id) != 26 {
		t.Fatalf("expected 26 chars, got %d (%q)", len(id), id)
	}
	for _, c := range id {
		if !strings.ContainsRune(crockford, c) {
			t.Fatalf("unexpected character %q in %q", c, id)
		}
	}
}

func TestRunID_MonotonicWithinMillisecond(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	prev := runIDAt(at)
	for range 100 {
		id := runIDAt(at)
		if id <= prev {
			t.Fatalf("expected %q > %q", id, prev)
		}
		prev = id
	}
}

func TestRunID_SortsByTime(t *testing.T) {
	a := runIDAt(time.UnixMilli(1_700_000_000_000))
	b := runIDAt(time.UnixMilli(1_700_000_000_001))
	if a[:10] >= b[:10] {
		t.Fatalf("expected timestamp prefix %q < %q", a[:10], b[:10])
	}
}

func TestEncodeCrockford_Zero(t *testing.T) {
	if got := encodeCrockford([16]byte{}); got != strings.Repeat("0", 26) {
		t.Fatalf("got %q", got)
	}
}

func TestEncodeCrockford_AllOnes(t *testing.T) {
	var b [16]byte
	for i := range b {
		b[i] = 0xFF
	}
	// The leading char carries only three bits.
	if got := encodeCrockford(b); got != "7"+strings.Repeat("Z", 25) {
		t.Fatalf("got %q", got)
	}
}

func TestIncr_Carries(t *testing.T) {
	b := []byte{0x00, 0xFF, 0xFF}
	incr(b)
	if b[0] != 0x01 || b[1] != 0 || b[2] != 0 {
		t.Fatalf("got %v", b)
	}
}

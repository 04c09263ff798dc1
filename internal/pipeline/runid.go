package pipeline

import (
	"crypto/rand"
	"sync"
	"time"
)

// Run IDs are ULIDs: a 48-bit millisecond timestamp followed by 80 random
// bits, Crockford base32 encoded. IDs minted within the same millisecond
// increment the random part so they stay sortable.

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var runIDs struct {
	mu   sync.Mutex
	ms   uint64
	last [10]byte
}

func newRunID() string {
	return runIDAt(time.Now())
}

func runIDAt(t time.Time) string {
	runIDs.mu.Lock()
	defer runIDs.mu.Unlock()

	ms := uint64(t.UnixMilli())
	if ms == runIDs.ms {
		incr(runIDs.last[:])
	} else {
		runIDs.ms = ms
		_, _ = rand.Read(runIDs.last[:])
	}

	var b [16]byte
	for i := range 6 {
		b[i] = byte(ms >> (40 - 8*i))
	}
	copy(b[6:], runIDs.last[:])
	return encodeCrockford(b)
}

// incr adds one to a big-endian byte string, wrapping on overflow.
func incr(b []byte) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i]++
		if b[i] != 0 {
			return
		}
	}
}

func encodeCrockford(b [16]byte) string {
	// 26 chars hold 130 bits; the first char carries two leading zero bits.
	var out [26]byte
	for i := range out {
		var v byte
		for j := range 5 {
			v <<= 1
			p := i*5 - 2 + j
			if p >= 0 && b[p/8]&(0x80>>(p%8)) != 0 {
				v |= 1
			}
		}
		out[i] = crockford[v]
	}
	return string(out[:])
}

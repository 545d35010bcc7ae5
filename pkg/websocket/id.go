package websocket

import (
	"crypto/rand"
	"encoding/hex"
	"sync/atomic"
	"time"
)

var sessionCounter uint64

// GenerateSessionID generates a unique session ID.
// The format is "sess-{timestamp_hex}-{counter}-{random}" for uniqueness and
// sortability.
func GenerateSessionID() string {
	ts := time.Now().UnixNano()
	tsHex := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		tsHex[i] = byte(ts & 0xff)
		ts >>= 8
	}

	counter := atomic.AddUint64(&sessionCounter, 1)
	counterHex := make([]byte, 4)
	for i := 3; i >= 0; i-- {
		counterHex[i] = byte(counter & 0xff)
		counter >>= 8
	}

	randomBytes := make([]byte, 4)
	_, _ = rand.Read(randomBytes)

	return "sess-" + hex.EncodeToString(tsHex) + "-" + hex.EncodeToString(counterHex) + "-" + hex.EncodeToString(randomBytes)
}

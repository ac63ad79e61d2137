// Package snowflake mints the identifiers and bearer tokens used across
// pastecove: time-ordered 64-bit IDs for pastes and documents, and opaque
// paste tokens.
package snowflake

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ebelanger/pastecove/internal/common"
)

// timestampShift is the number of low bits reserved for the random sequence.
// The remaining high bits carry unix milliseconds, which keeps IDs sortable
// by creation time.
const timestampShift = 22

// tokenLength is the length of the random part of a paste token. Fixed by
// the paste_tokens schema.
const tokenLength = 25

// tokenAlphabet avoids characters that are ambiguous or unsafe in URLs and
// shell contexts.
const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-"

// tokenByteLimit is the largest multiple of len(tokenAlphabet) that fits in a
// byte. Random bytes at or above it are rejected, keeping every alphabet
// character equally likely.
const tokenByteLimit = 256 - 256%len(tokenAlphabet)

// randRead is a seam for tests.
var randRead = rand.Read

// Generator mints process-wide unique, monotonically non-decreasing IDs.
// The zero value is not usable; use New.
type Generator struct {
	mu   sync.Mutex
	last int64

	// now returns unix milliseconds; a seam for tests.
	now func() int64
}

// New constructs a Generator using the provided clock. nowMillis may be nil,
// in which case the wall clock is used.
func New(nowMillis func() int64) *Generator {
	if nowMillis == nil {
		nowMillis = wallClockMillis
	}
	return &Generator{now: nowMillis}
}

// NextID returns a new snowflake: unix-millis shifted left by 22 bits, with
// 22 random low bits. Consecutive calls never return a decreasing value even
// if the clock steps backwards.
func (g *Generator) NextID() (int64, error) {
	var buf [8]byte
	if _, err := randRead(buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrEntropyUnavailable, err)
	}
	seq := int64(binary.BigEndian.Uint64(buf[:])) & (1<<timestampShift - 1)

	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now()<<timestampShift | seq
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id, nil
}

// NewToken returns a bearer token bound to pasteID: the base64url-encoded
// paste ID, a dot, and 25 random characters from tokenAlphabet. The paste ID
// prefix lets callers resolve the target paste without a table scan; the
// random suffix is the actual credential.
func (g *Generator) NewToken(pasteID int64) (string, error) {
	token := make([]byte, 0, tokenLength)
	buf := make([]byte, tokenLength)
	for len(token) < tokenLength {
		if _, err := randRead(buf); err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrEntropyUnavailable, err)
		}
		for _, b := range buf {
			if int(b) >= tokenByteLimit {
				continue
			}
			token = append(token, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(token) == tokenLength {
				break
			}
		}
	}

	prefix := base64.URLEncoding.EncodeToString([]byte(strconv.FormatInt(pasteID, 10)))
	return prefix + "." + string(token), nil
}

// CreatedAt recovers the unix-millisecond timestamp embedded in id.
func CreatedAt(id int64) int64 {
	return id >> timestampShift
}

func wallClockMillis() int64 {
	return time.Now().UnixMilli()
}

package store

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// newRandomID returns prefix-<suffix> where suffix is 8 chars of base32 (lowercase, no padding).
// 8 chars base32 ~= 40 bits (~1 trillion) of space.
func newRandomID(prefix string) (string, error) {
	var b [5]byte // 40 bits -> 8 base32 chars
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	suffix := strings.ToLower(enc.EncodeToString(b[:]))
	return prefix + "-" + suffix, nil
}

var fallbackSeq atomic.Int64

// NewID returns a random prefixed id for groups, annotations, files and shares.
func NewID(prefix string) string {
	id, err := newRandomID(prefix)
	if err == nil {
		return id
	}
	// crypto/rand failing is not expected; keep ids unique within the process anyway.
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), fallbackSeq.Add(1))
}

// IDGen returns a NewID closure bound to prefix.
func IDGen(prefix string) func() string {
	return func() string { return NewID(prefix) }
}

// Package numbering builds human-readable document numbers:
//
//	INV-2026-0012-K7Q2
//
// prefix by document kind, UTC calendar year, zero-padded ordinal, and a
// short disambiguator token. The ordinal is readable bookkeeping; the token
// is what makes a number collision-proof when two creations race, and the
// storage layer's unique index backs both up.
package numbering

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bhavi-thiran/Auto-Invoice-SaaS/internal/model"
)

const (
	tokenLen = 4
	// First token char is always a letter so a document number can never
	// be mistaken for an amount by the message parser. Lookalike letters
	// I, L and O are excluded.
	tokenAlpha = "ABCDEFGHJKMNPQRSTUVWXYZ"
	tokenChars = "0123456789ABCDEFGHJKMNPQRSTUVWXYZ"
)

// tokenCounter is seeded from the boot clock and strictly increases, so
// tokens generated by one process never repeat until the sequence wraps
// (hundreds of thousands of documents later).
var tokenCounter atomic.Uint64

func init() {
	tokenCounter.Store(uint64(time.Now().UnixNano()))
}

// Prefix returns the three-letter number prefix for a document kind.
func Prefix(kind model.DocumentType) string {
	switch kind {
	case model.DocQuotation:
		return "QUO"
	case model.DocReceipt:
		return "REC"
	default:
		return "INV"
	}
}

// Generate builds the number for the seq-th document of a kind, where seq
// is the existing count plus one. Concurrent calls always produce distinct
// numbers even for an identical seq.
func Generate(kind model.DocumentType, now time.Time, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d-%s", Prefix(kind), now.UTC().Year(), seq, disambiguator())
}

func disambiguator() string {
	v := tokenCounter.Add(1)
	b := make([]byte, tokenLen)
	b[0] = tokenAlpha[v%uint64(len(tokenAlpha))]
	v /= uint64(len(tokenAlpha))
	for i := 1; i < tokenLen; i++ {
		b[i] = tokenChars[v%uint64(len(tokenChars))]
		v /= uint64(len(tokenChars))
	}
	return string(b)
}

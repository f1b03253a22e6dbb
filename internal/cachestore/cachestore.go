// Package cachestore implements the durable cache for map tiles and
// region lookups, with freshness evaluation following the conservative
// HTTP caching rules the upstream services speak.
package cachestore

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrStore marks local storage failures. A failing cache is fatal for a
// run since correctness cannot be guaranteed without a trustworthy
// cache/fetch path.
var ErrStore = errors.New("cache store failure")

// Entry is one cached payload together with its freshness metadata.
// Negative entries record an authoritative "does not exist" answer.
type Entry struct {
	Payload      []byte
	Negative     bool
	ETag         string
	LastModified time.Time
	ExpiresAt    time.Time
	StoredAt     time.Time
}

type Freshness int

const (
	// Absent means there is no usable entry for the key.
	Absent Freshness = iota
	// Fresh means the entry may be used without contacting the origin.
	Fresh
	// NeedsRevalidation means the entry must be conditionally
	// revalidated before use. Entries without any explicit freshness
	// lifetime always land here rather than being assumed fresh.
	NeedsRevalidation
)

// Evaluate classifies an entry at the given point in time.
func (e Entry) Evaluate(now time.Time) Freshness {
	if !e.ExpiresAt.IsZero() && now.Before(e.ExpiresAt) {
		return Fresh
	}
	return NeedsRevalidation
}

// HasValidator reports whether a conditional revalidation request can be
// built from this entry.
func (e Entry) HasValidator() bool {
	return e.ETag != "" || !e.LastModified.IsZero()
}

// Store is the durable key to entry mapping. Get reports absence via the
// second return value, not an error. Put is an atomic per-key upsert.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, key string, entry Entry) error
	Close() error
}

// EntryFromResponse captures payload and freshness metadata from an
// upstream response. Only the three signals the upstream contract
// promises are interpreted: explicit expiry (Cache-Control max-age or
// Expires), a validator (ETag or Last-Modified), or neither.
func EntryFromResponse(header http.Header, payload []byte, now time.Time) Entry {
	entry := Entry{
		Payload:  payload,
		ETag:     header.Get("ETag"),
		StoredAt: now,
	}
	if lm := header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			entry.LastModified = t
		}
	}
	if maxAge, ok := maxAgeSeconds(header.Get("Cache-Control")); ok {
		entry.ExpiresAt = now.Add(time.Duration(maxAge) * time.Second)
	} else if expires := header.Get("Expires"); expires != "" {
		if t, err := http.ParseTime(expires); err == nil && t.After(now) {
			entry.ExpiresAt = t
		}
	}
	return entry
}

// RefreshFromResponse merges the freshness metadata of a "not modified"
// response into an existing entry, leaving the payload untouched.
func (e Entry) RefreshFromResponse(header http.Header, now time.Time) Entry {
	refreshed := EntryFromResponse(header, e.Payload, now)
	refreshed.Negative = e.Negative
	if refreshed.ETag == "" {
		refreshed.ETag = e.ETag
	}
	if refreshed.LastModified.IsZero() {
		refreshed.LastModified = e.LastModified
	}
	return refreshed
}

func maxAgeSeconds(cacheControl string) (int64, bool) {
	var maxAge int64
	var found bool
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		// no-cache and no-store veto any max-age, wherever they appear.
		if strings.EqualFold(directive, "no-store") || strings.EqualFold(directive, "no-cache") {
			return 0, false
		}
		if value, ok := strings.CutPrefix(directive, "max-age="); ok {
			seconds, err := strconv.ParseInt(value, 10, 64)
			if err != nil || seconds <= 0 {
				continue
			}
			maxAge, found = seconds, true
		}
	}
	return maxAge, found
}

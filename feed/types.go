package feed

import (
	"cmp"
	"context"
	"time"

	"curius/models"
)

// Sentinel timestamps bracketing every real record. A source whose cutoff
// has fallen to MinTimestamp is drained; MaxTimestamp caps range counts.
var (
	MinTimestamp = time.Date(1969, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxTimestamp = time.Date(2069, 1, 1, 0, 0, 0, 0, time.UTC)
)

var (
	minMicros = MinTimestamp.UnixMicro()
	maxMicros = MaxTimestamp.UnixMicro()
)

// Source is one followed entity's paginated link stream, newest first.
type Source interface {
	// ID is a stable identity for the source.
	ID() int64
	// Name is the display name used for attribution.
	Name() string
	// ActivityBound is the most recent timestamp any record from this
	// source can carry, known before anything is fetched.
	ActivityBound() time.Time
	// FetchPage returns the zero-based page, ordered newest first. An
	// empty page means the source is drained, and pages past the end
	// stay empty.
	FetchPage(ctx context.Context, page int) ([]*models.Link, error)
}

// mergeKey orders buffered links inside the tree. The sequence number makes
// every key distinct and keeps equal timestamps in insertion order.
type mergeKey struct {
	micros int64
	seq    uint64
}

func compareKeys(a, b mergeKey) int {
	if c := cmp.Compare(a.micros, b.micros); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

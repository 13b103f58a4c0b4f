// Package feed merges the followed users' saved-link streams into one
// reverse-chronological feed.
//
// Each source serves its links newest first, one page at a time, so the
// timestamp of the last link on a source's latest page bounds everything
// that source can still produce. The buffer keeps that bound as the
// source's cutoff and only emits a link once no source's unfetched pages
// could top it. Fetching is lazy: a page is requested only when the merge
// cannot otherwise be proven correct, and always from the source whose
// cutoff is most recent, since that source alone can change the answer.
package feed

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"curius/models"
	"curius/rbtree"
)

type sourceState struct {
	src       Source
	cutoff    int64
	page      int
	exhausted bool
}

// Buffer owns a set of sources and the fetched-but-not-yet-emitted links.
// It is not safe for concurrent use; callers serialize access.
type Buffer struct {
	sources     []*sourceState
	tree        *rbtree.Tree[mergeKey]
	links       map[mergeKey]*models.Link
	savers      map[string][]string
	explored    map[string]struct{}
	nextSeq     uint64
	maxIdx      int
	maxCutoff   int64
	attribution bool
}

// New builds a buffer over sources. When attribution is enabled the title
// of every returned link is prefixed with the names of all sources that
// saved it.
func New(sources []Source, attribution bool) *Buffer {
	b := &Buffer{
		tree:        rbtree.New(compareKeys),
		links:       make(map[mergeKey]*models.Link),
		savers:      make(map[string][]string),
		explored:    make(map[string]struct{}),
		attribution: attribution,
	}
	for _, src := range sources {
		b.sources = append(b.sources, &sourceState{
			src:    src,
			cutoff: src.ActivityBound().UnixMicro(),
		})
	}
	b.rescanMaxCutoff()
	return b
}

// GetNextN returns up to n links in descending timestamp order, removing
// them from the buffer. Pages are fetched until n buffered links sit at or
// above every non-drained source's cutoff, so nothing still unfetched can
// outrank what is returned. Once every source is drained the remaining tail
// is handed out freely.
func (b *Buffer) GetNextN(ctx context.Context, n int) ([]*models.Link, error) {
	if len(b.sources) == 0 {
		return nil, nil
	}
	for !b.IsExhausted() && b.countBetween(b.maxCutoff, maxMicros) < n {
		if err := b.processNext(ctx); err != nil {
			return nil, err
		}
	}
	return b.popN(n), nil
}

// IsExhausted reports whether every source has been drained.
func (b *Buffer) IsExhausted() bool {
	return b.maxCutoff <= minMicros
}

// PeekCountAbove counts buffered, not yet emitted links with timestamps at
// or after t.
func (b *Buffer) PeekCountAbove(t time.Time) int {
	return b.countBetween(t.UnixMicro(), maxMicros)
}

// Len is the number of buffered, not yet emitted links.
func (b *Buffer) Len() int {
	return b.tree.Len()
}

// processNext fetches one page from the source with the most recent cutoff.
func (b *Buffer) processNext(ctx context.Context) error {
	idx := b.maxIdx
	if idx < 0 {
		return nil
	}
	st := b.sources[idx]
	links, err := st.src.FetchPage(ctx, st.page)
	if err != nil {
		return fmt.Errorf("fetching page %d from %s: %w", st.page, st.src.Name(), err)
	}
	// The cursor moves only on success so a failed call can be retried.
	st.page++
	old := st.cutoff
	if len(links) == 0 {
		st.cutoff = minMicros
		st.exhausted = true
	} else {
		st.cutoff = links[len(links)-1].Timestamp().UnixMicro()
	}
	b.updateCutoff(idx, old)
	b.addLinks(links, st.src.Name())
	return nil
}

// updateCutoff maintains the global cutoff after one source's cutoff moved.
// A full rescan is needed only when the current holder dropped; ties keep
// the earliest source in constructor order.
func (b *Buffer) updateCutoff(idx int, old int64) {
	st := b.sources[idx]
	switch {
	case idx == b.maxIdx && st.cutoff < old:
		b.rescanMaxCutoff()
	case st.cutoff > b.maxCutoff:
		b.maxIdx, b.maxCutoff = idx, st.cutoff
	}
}

func (b *Buffer) rescanMaxCutoff() {
	b.maxIdx = -1
	b.maxCutoff = minMicros
	for i, st := range b.sources {
		if st.cutoff > b.maxCutoff {
			b.maxIdx, b.maxCutoff = i, st.cutoff
		}
	}
}

func (b *Buffer) addLinks(links []*models.Link, name string) {
	for _, link := range links {
		b.addLink(link, name)
	}
}

// addLink inserts a link under a fresh merge key unless its URL was already
// seen, in which case only the attribution list grows.
func (b *Buffer) addLink(link *models.Link, name string) {
	if _, seen := b.explored[link.Url]; seen {
		if b.attribution {
			b.savers[link.Url] = append(b.savers[link.Url], name)
		}
		return
	}
	key := mergeKey{micros: link.Timestamp().UnixMicro(), seq: b.nextSeq}
	b.nextSeq++
	b.tree.Insert(key)
	b.links[key] = link
	if b.attribution {
		b.savers[link.Url] = []string{name}
	}
	b.explored[link.Url] = struct{}{}
}

// popN removes and returns the n most recent buffered links.
func (b *Buffer) popN(n int) []*models.Link {
	var links []*models.Link
	for b.tree.Len() > 0 && len(links) < n {
		last := b.tree.Len() - 1
		key := b.tree.Select(last)
		b.tree.RemoveByRank(last)
		links = append(links, b.links[key])
		delete(b.links, key)
	}
	if b.attribution {
		for _, link := range links {
			b.rewriteTitle(link)
		}
	}
	return links
}

// rewriteTitle prefixes the names of every source that saved the link. The
// list is read at pop time so attributions from pages fetched after the
// first sighting are included.
func (b *Buffer) rewriteTitle(link *models.Link) {
	names := b.savers[link.Url]
	if len(names) == 0 {
		return
	}
	link.SetTitle(strings.Join(names, ", ") + " | " + link.OriginalTitle())
}

// countBetween counts buffered links with timestamps in [start, end],
// ignoring sequence numbers.
func (b *Buffer) countBetween(start, end int64) int {
	if start > end {
		return 0
	}
	lo := mergeKey{micros: start}
	hi := mergeKey{micros: end, seq: math.MaxUint64}
	return b.tree.CountRange(lo, hi)
}

// Package tui is the interactive curius browser. Panes form a tree the user
// walks with a list cursor: profile panes, following panes and paged feed
// panes, each built lazily the first time it is entered.
package tui

import (
	"context"
	"errors"
	"fmt"
)

// BackKey is the reserved entry that returns to the previous pane.
const BackKey = "Back"

// Node is one selectable entry in a pane.
type Node interface {
	Title() string
}

// Action runs a side effect and leaves the pane stack alone.
type Action interface {
	Node
	Run() error
}

// Marker stands in for a pane that is only built when entered.
type Marker interface {
	Node
	Fetch(ctx context.Context) (*Pane, error)
}

type entry struct {
	key  string
	node Node
}

// Pane is a titled, ordered list of nodes with an optional way back.
type Pane struct {
	title   string
	entries []entry
	prev    *Pane
}

func NewPane(title string) *Pane {
	return &Pane{title: title}
}

func (p *Pane) Title() string {
	return p.title
}

func (p *Pane) SetTitle(title string) {
	p.title = title
}

// Add appends an entry, replacing an earlier one with the same key.
func (p *Pane) Add(key string, node Node) {
	for i := range p.entries {
		if p.entries[i].key == key {
			p.entries[i].node = node
			return
		}
	}
	p.entries = append(p.entries, entry{key: key, node: node})
}

func (p *Pane) Clear() {
	p.entries = nil
}

// Keys lists the selectable entries, with a way back first when one exists.
func (p *Pane) Keys() []string {
	keys := make([]string, 0, len(p.entries)+1)
	if p.prev != nil {
		keys = append(keys, BackKey)
	}
	for _, e := range p.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// Child returns the node behind a key.
func (p *Pane) Child(key string) (Node, error) {
	if key == BackKey {
		if p.prev == nil {
			return nil, errors.New("previous pane is not set")
		}
		return p.prev, nil
	}
	for _, e := range p.entries {
		if e.key == key {
			return e.node, nil
		}
	}
	return nil, fmt.Errorf("no entry %q in pane %q", key, p.title)
}

// Resolve follows a key to the pane it leads to, building it first when the
// entry is a marker.
func (p *Pane) Resolve(ctx context.Context, key string) (*Pane, error) {
	child, err := p.Child(key)
	if err != nil {
		return nil, err
	}
	switch node := child.(type) {
	case *Pane:
		return node, nil
	case Marker:
		return node.Fetch(ctx)
	default:
		return nil, fmt.Errorf("entry %q does not lead to a pane", key)
	}
}

func (p *Pane) HasPrev() bool {
	return p.prev != nil
}

// AddPrev links the pane back to where it was opened from. The first link
// wins, so a feed pane flipped through Prev/Next keeps its true parent.
func (p *Pane) AddPrev(prev *Pane) {
	if p.prev == nil {
		p.prev = prev
	}
}

// Package rbtree implements an order-statistic red-black tree: a sorted
// multiset that answers rank, select and range-count queries in O(log n).
//
// Nodes live in a growable arena and reference each other by index rather
// than by pointer. Index 0 is reserved for the shared nil sentinel, which
// keeps rotations and fixups free of nil checks. Every node carries the size
// of its subtree so that the k-th smallest element can be found by walking
// from the root.
package rbtree

import "fmt"

const nilIdx int32 = 0

type node[K any] struct {
	key    K
	parent int32
	left   int32
	right  int32
	size   int32
	red    bool
}

// Tree is a sorted multiset of K ordered by a comparison function. Elements
// comparing equal are kept in insertion order. The zero value is not usable,
// construct with New.
type Tree[K any] struct {
	cmp   func(a, b K) int
	nodes []node[K]
	free  []int32
}

// New returns an empty tree ordered by cmp, which must return a negative
// number when a sorts before b, zero when they are equal and a positive
// number otherwise.
func New[K any](cmp func(a, b K) int) *Tree[K] {
	t := &Tree[K]{cmp: cmp}
	// Slot 0 is the nil sentinel: black, size zero. Its parent field is
	// scratch space for the delete fixup.
	t.nodes = make([]node[K], 1, 16)
	return t
}

// root is stored as the sentinel's right child so that an empty tree needs
// no special casing when reading it.
func (t *Tree[K]) root() int32     { return t.nodes[nilIdx].right }
func (t *Tree[K]) setRoot(x int32) { t.nodes[nilIdx].right = x }

// Len returns the number of stored elements.
func (t *Tree[K]) Len() int {
	return int(t.nodes[t.root()].size)
}

func (t *Tree[K]) alloc(key K) int32 {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		t.nodes[idx] = node[K]{key: key, size: 1, red: true}
		return idx
	}
	t.nodes = append(t.nodes, node[K]{key: key, size: 1, red: true})
	return int32(len(t.nodes) - 1)
}

func (t *Tree[K]) release(x int32) {
	var zero K
	t.nodes[x] = node[K]{key: zero}
	t.free = append(t.free, x)
}

func (t *Tree[K]) resize(x int32) {
	n := &t.nodes[x]
	n.size = t.nodes[n.left].size + t.nodes[n.right].size + 1
}

func (t *Tree[K]) updateSizesUpward(x int32) {
	for x != nilIdx {
		t.resize(x)
		x = t.nodes[x].parent
	}
}

// Insert adds key to the tree. Keys equal to an already stored key sort
// after it.
func (t *Tree[K]) Insert(key K) {
	z := t.alloc(key)
	y := nilIdx
	x := t.root()
	for x != nilIdx {
		y = x
		if t.cmp(key, t.nodes[x].key) < 0 {
			x = t.nodes[x].left
		} else {
			x = t.nodes[x].right
		}
	}
	t.nodes[z].parent = y
	switch {
	case y == nilIdx:
		t.setRoot(z)
	case t.cmp(key, t.nodes[y].key) < 0:
		t.nodes[y].left = z
	default:
		t.nodes[y].right = z
	}
	t.updateSizesUpward(y)
	t.insertFixup(z)
}

// Select returns the element with the given 0-based rank in sorted order.
// It panics when rank is outside [0, Len()).
func (t *Tree[K]) Select(rank int) K {
	return t.nodes[t.nodeAt(rank)].key
}

// RemoveByRank removes the element with the given 0-based rank. It panics
// when rank is outside [0, Len()).
func (t *Tree[K]) RemoveByRank(rank int) {
	t.deleteNode(t.nodeAt(rank))
}

func (t *Tree[K]) nodeAt(rank int) int32 {
	if rank < 0 || rank >= t.Len() {
		panic(fmt.Sprintf("rbtree: rank %d out of range [0, %d)", rank, t.Len()))
	}
	x := t.root()
	for {
		left := int(t.nodes[t.nodes[x].left].size)
		switch {
		case rank < left:
			x = t.nodes[x].left
		case rank == left:
			return x
		default:
			rank -= left + 1
			x = t.nodes[x].right
		}
	}
}

// Rank returns the number of stored elements strictly less than key.
func (t *Tree[K]) Rank(key K) int {
	return t.countBelow(key, false)
}

// CountRange returns the number of stored elements k with lo <= k <= hi.
// It returns 0 when lo sorts after hi.
func (t *Tree[K]) CountRange(lo, hi K) int {
	if t.cmp(lo, hi) > 0 {
		return 0
	}
	return t.countBelow(hi, true) - t.countBelow(lo, false)
}

// countBelow counts elements less than key, or less than or equal to it
// when orEqual is set. One descent from the root, accumulating the left
// subtree whenever the walk goes right.
func (t *Tree[K]) countBelow(key K, orEqual bool) int {
	count := 0
	x := t.root()
	for x != nilIdx {
		c := t.cmp(key, t.nodes[x].key)
		if c < 0 || (c == 0 && !orEqual) {
			x = t.nodes[x].left
		} else {
			count += int(t.nodes[t.nodes[x].left].size) + 1
			x = t.nodes[x].right
		}
	}
	return count
}

// Min returns the least element. ok is false when the tree is empty.
func (t *Tree[K]) Min() (key K, ok bool) {
	if t.Len() == 0 {
		return key, false
	}
	return t.nodes[t.minimum(t.root())].key, true
}

// Max returns the greatest element. ok is false when the tree is empty.
func (t *Tree[K]) Max() (key K, ok bool) {
	if t.Len() == 0 {
		return key, false
	}
	x := t.root()
	for t.nodes[x].right != nilIdx {
		x = t.nodes[x].right
	}
	return t.nodes[x].key, true
}

// All calls yield for every stored element in ascending order, stopping
// early when yield returns false.
func (t *Tree[K]) All(yield func(K) bool) {
	t.ascend(t.root(), yield)
}

func (t *Tree[K]) ascend(x int32, yield func(K) bool) bool {
	if x == nilIdx {
		return true
	}
	if !t.ascend(t.nodes[x].left, yield) {
		return false
	}
	if !yield(t.nodes[x].key) {
		return false
	}
	return t.ascend(t.nodes[x].right, yield)
}

func (t *Tree[K]) minimum(x int32) int32 {
	for t.nodes[x].left != nilIdx {
		x = t.nodes[x].left
	}
	return x
}

// Rotations rewire which subtree belongs to whom, so the sizes of both
// rotated nodes are recomputed bottom-up.

func (t *Tree[K]) rotateLeft(x int32) {
	y := t.nodes[x].right
	t.nodes[x].right = t.nodes[y].left
	if t.nodes[y].left != nilIdx {
		t.nodes[t.nodes[y].left].parent = x
	}
	t.nodes[y].parent = t.nodes[x].parent
	t.replaceChild(t.nodes[x].parent, x, y)
	t.nodes[y].left = x
	t.nodes[x].parent = y
	t.resize(x)
	t.resize(y)
}

func (t *Tree[K]) rotateRight(x int32) {
	y := t.nodes[x].left
	t.nodes[x].left = t.nodes[y].right
	if t.nodes[y].right != nilIdx {
		t.nodes[t.nodes[y].right].parent = x
	}
	t.nodes[y].parent = t.nodes[x].parent
	t.replaceChild(t.nodes[x].parent, x, y)
	t.nodes[y].right = x
	t.nodes[x].parent = y
	t.resize(x)
	t.resize(y)
}

func (t *Tree[K]) replaceChild(parent, old, new int32) {
	if parent == nilIdx {
		t.setRoot(new)
		return
	}
	if t.nodes[parent].left == old {
		t.nodes[parent].left = new
	} else {
		t.nodes[parent].right = new
	}
}

func (t *Tree[K]) insertFixup(z int32) {
	for t.nodes[t.nodes[z].parent].red {
		parent := t.nodes[z].parent
		grand := t.nodes[parent].parent
		if parent == t.nodes[grand].left {
			uncle := t.nodes[grand].right
			if t.nodes[uncle].red {
				t.nodes[parent].red = false
				t.nodes[uncle].red = false
				t.nodes[grand].red = true
				z = grand
				continue
			}
			if z == t.nodes[parent].right {
				z = parent
				t.rotateLeft(z)
				parent = t.nodes[z].parent
				grand = t.nodes[parent].parent
			}
			t.nodes[parent].red = false
			t.nodes[grand].red = true
			t.rotateRight(grand)
		} else {
			uncle := t.nodes[grand].left
			if t.nodes[uncle].red {
				t.nodes[parent].red = false
				t.nodes[uncle].red = false
				t.nodes[grand].red = true
				z = grand
				continue
			}
			if z == t.nodes[parent].left {
				z = parent
				t.rotateRight(z)
				parent = t.nodes[z].parent
				grand = t.nodes[parent].parent
			}
			t.nodes[parent].red = false
			t.nodes[grand].red = true
			t.rotateLeft(grand)
		}
	}
	t.nodes[t.root()].red = false
}

// transplant replaces the subtree rooted at u with the one rooted at v.
// v's parent is set even when v is the sentinel; the delete fixup relies
// on that scratch value.
func (t *Tree[K]) transplant(u, v int32) {
	p := t.nodes[u].parent
	t.replaceChild(p, u, v)
	t.nodes[v].parent = p
}

func (t *Tree[K]) deleteNode(z int32) {
	y := z
	yWasRed := t.nodes[y].red
	var x int32
	splicedParent := nilIdx

	switch {
	case t.nodes[z].left == nilIdx:
		x = t.nodes[z].right
		t.transplant(z, x)
	case t.nodes[z].right == nilIdx:
		x = t.nodes[z].left
		t.transplant(z, x)
	default:
		// Two children: splice in the successor, which has no left child.
		y = t.minimum(t.nodes[z].right)
		yWasRed = t.nodes[y].red
		x = t.nodes[y].right
		if t.nodes[y].parent == z {
			t.nodes[x].parent = y
		} else {
			splicedParent = t.nodes[y].parent
			t.transplant(y, x)
			t.nodes[y].right = t.nodes[z].right
			t.nodes[t.nodes[y].right].parent = y
		}
		t.transplant(z, y)
		t.nodes[y].left = t.nodes[z].left
		t.nodes[t.nodes[y].left].parent = y
		t.nodes[y].red = t.nodes[z].red
		t.resize(y)
	}

	if !yWasRed {
		t.deleteFixup(x)
	}
	// Rotations keep the sizes of the nodes they touch correct; everything
	// else on the paths out of the splice points is recomputed here.
	t.updateSizesUpward(t.nodes[x].parent)
	t.updateSizesUpward(t.nodes[y].parent)
	if splicedParent != nilIdx {
		t.updateSizesUpward(splicedParent)
	}
	t.release(z)
}

func (t *Tree[K]) deleteFixup(x int32) {
	for x != t.root() && !t.nodes[x].red {
		p := t.nodes[x].parent
		if x == t.nodes[p].left {
			w := t.nodes[p].right
			if t.nodes[w].red {
				t.nodes[w].red = false
				t.nodes[p].red = true
				t.rotateLeft(p)
				w = t.nodes[t.nodes[x].parent].right
			}
			if !t.nodes[t.nodes[w].left].red && !t.nodes[t.nodes[w].right].red {
				t.nodes[w].red = true
				x = t.nodes[x].parent
				continue
			}
			if !t.nodes[t.nodes[w].right].red {
				t.nodes[t.nodes[w].left].red = false
				t.nodes[w].red = true
				t.rotateRight(w)
				w = t.nodes[t.nodes[x].parent].right
			}
			p = t.nodes[x].parent
			t.nodes[w].red = t.nodes[p].red
			t.nodes[p].red = false
			t.nodes[t.nodes[w].right].red = false
			t.rotateLeft(p)
			x = t.root()
		} else {
			w := t.nodes[p].left
			if t.nodes[w].red {
				t.nodes[w].red = false
				t.nodes[p].red = true
				t.rotateRight(p)
				w = t.nodes[t.nodes[x].parent].left
			}
			if !t.nodes[t.nodes[w].right].red && !t.nodes[t.nodes[w].left].red {
				t.nodes[w].red = true
				x = t.nodes[x].parent
				continue
			}
			if !t.nodes[t.nodes[w].left].red {
				t.nodes[t.nodes[w].right].red = false
				t.nodes[w].red = true
				t.rotateLeft(w)
				w = t.nodes[t.nodes[x].parent].left
			}
			p = t.nodes[x].parent
			t.nodes[w].red = t.nodes[p].red
			t.nodes[p].red = false
			t.nodes[t.nodes[w].left].red = false
			t.rotateRight(p)
			x = t.root()
		}
	}
	t.nodes[x].red = false
}

// Package interval implements the augmented interval tree backing binrange.
//
// The tree is a plain BST keyed on range start, augmented with a per-node
// maxEnd (the largest end bound in the node's subtree) that lets lookups
// prune left subtrees that cannot contain the probed PAN. It does not
// self-balance: callers are expected to randomize insertion order (see the
// ingest package) so the expected height stays logarithmic. There is no
// worst-case height guarantee.
//
// A single RWMutex guards the whole tree. Lookups run concurrently with
// each other; every mutation is exclusive and blocks all other access for
// its full duration, including an entire InsertAll batch.
package interval

import (
	"errors"
	"sync"

	"github.com/hupe1980/binrange/model"
)

// ErrNilRanges is returned when a bulk insert is invoked with a nil slice.
var ErrNilRanges = errors.New("card ranges list cannot be nil")

// DefaultChunkSize is the number of records inserted per chunk during
// InsertAll. Chunking only bounds transient allocation bursts; the write
// lock is held across all chunks of a call regardless.
const DefaultChunkSize = 100_000

// Options configures a Tree.
type Options struct {
	// ChunkSize partitions InsertAll work. Values < 1 fall back to
	// DefaultChunkSize.
	ChunkSize int
}

// DefaultOptions are the options used by New when no overrides are given.
var DefaultOptions = Options{
	ChunkSize: DefaultChunkSize,
}

type node struct {
	rng    model.CardRange
	maxEnd int64
	left   *node
	right  *node
}

// Tree is a concurrency-safe augmented interval tree over card ranges.
//
// The zero value is not usable; create instances with New.
type Tree struct {
	mu   sync.RWMutex
	root *node
	size int

	chunkSize int
}

// New creates an empty Tree.
func New(optFns ...func(*Options)) *Tree {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ChunkSize < 1 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Tree{
		chunkSize: opts.ChunkSize,
	}
}

// Insert adds a single card range to the tree.
//
// Duplicate (start, end) pairs are retained as distinct nodes; the tree
// never replaces or removes existing entries.
func (t *Tree) Insert(r model.CardRange) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.insert(r, nil)
}

// InsertAll adds every range in rs under one write lock.
//
// The slice is processed in fixed-size chunks purely to bound allocation
// bursts; readers stay blocked for the whole call. An empty slice is a
// no-op, a nil slice is an error.
func (t *Tree) InsertAll(rs []model.CardRange) error {
	if rs == nil {
		return ErrNilRanges
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Path buffer reused across all inserts of the batch.
	path := make([]*node, 0, 64)

	for start := 0; start < len(rs); start += t.chunkSize {
		end := min(start+t.chunkSize, len(rs))
		for _, r := range rs[start:end] {
			path = t.insert(r, path)
		}
	}

	return nil
}

// insert performs one BST insert and recomputes maxEnd bottom-up along the
// insertion path. It requires the write lock and returns the (possibly
// regrown) path buffer for reuse.
func (t *Tree) insert(r model.CardRange, path []*node) []*node {
	n := &node{rng: r, maxEnd: r.EndRange}
	t.size++

	if t.root == nil {
		t.root = n
		return path
	}

	// Iterative descent: equal starts go right, preserving insertion
	// order among equal-start ranges without touching existing nodes.
	path = path[:0]
	cur := t.root
	for {
		path = append(path, cur)
		if r.StartRange < cur.rng.StartRange {
			if cur.left == nil {
				cur.left = n
				break
			}
			cur = cur.left
		} else {
			if cur.right == nil {
				cur.right = n
				break
			}
			cur = cur.right
		}
	}

	// Unwind: restore maxEnd == max(end, left.maxEnd, right.maxEnd) for
	// every node on the insertion path.
	for i := len(path) - 1; i >= 0; i-- {
		p := path[i]
		m := p.rng.EndRange
		if p.left != nil && p.left.maxEnd > m {
			m = p.left.maxEnd
		}
		if p.right != nil && p.right.maxEnd > m {
			m = p.right.maxEnd
		}
		p.maxEnd = m
	}

	return path
}

// Find returns the most specific stored range containing pan.
//
// Among all containing ranges the one with the strictly smallest width
// wins; equal-width ties keep whichever the traversal reached first. The
// second return value is false when no stored range contains pan.
func (t *Tree) Find(pan int64) (model.CardRange, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.root == nil {
		return model.CardRange{}, false
	}

	var best *node

	// Explicit-stack preorder so adversarially deep trees cost time, not
	// call stack. Right is pushed first so the left subtree is explored
	// before it, matching node -> left -> right order.
	stack := make([]*node, 0, 64)
	stack = append(stack, t.root)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.rng.Contains(pan) {
			// Conflict resolution: prefer the smaller (more
			// specific) range.
			if best == nil || n.rng.Width() < best.rng.Width() {
				best = n
			}
		}

		if n.right != nil {
			stack = append(stack, n.right)
		}
		// Prune: a left subtree whose ranges all end before pan
		// cannot contain it. No symmetric bound exists for the right
		// subtree, so it is always explored.
		if n.left != nil && n.left.maxEnd >= pan {
			stack = append(stack, n.left)
		}
	}

	if best == nil {
		return model.CardRange{}, false
	}
	return best.rng, true
}

// Clear discards every stored range in O(1).
func (t *Tree) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.root = nil
	t.size = 0
}

// Len returns the number of stored ranges, duplicates included.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.size
}

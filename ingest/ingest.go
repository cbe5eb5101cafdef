// Package ingest implements the bulk-load policy for card ranges.
//
// Two concerns live here: the insertion-order randomization that keeps the
// unbalanced interval tree from degenerating on sorted input, and the
// Loader that pulls PRes documents out of a blobstore, decompresses and
// decodes them, and feeds them to a store.
package ingest

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/binrange/model"
)

// Shuffle randomly permutes rs in place.
//
// The interval tree does not self-balance, so feeding it ranges in sorted
// order (the natural order of most PRes feeds) produces a linked-list
// shaped tree with O(n) lookups. A shuffled order makes the expected
// height logarithmic with high probability. It is a mitigation, not a
// worst-case guarantee.
//
// If rng is nil a process-wide seeded source is used.
func Shuffle(rs []model.CardRange, rng *rand.Rand) {
	swap := func(i, j int) {
		rs[i], rs[j] = rs[j], rs[i]
	}
	if rng == nil {
		defaultRNG.shuffle(len(rs), swap)
		return
	}
	rng.Shuffle(len(rs), swap)
}

// defaultRNG guards the fallback source; math/rand.Rand is not safe for
// concurrent use.
var defaultRNG = &lockedRNG{
	rng: rand.New(rand.NewSource(rand.Int63())),
}

type lockedRNG struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (l *lockedRNG) shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rng.Shuffle(n, swap)
}

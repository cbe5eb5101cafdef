// Package testutil provides deterministic random data generation for
// tests and benchmarks, including realistic PRes seed documents.
package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/binrange/model"
)

// GenerateStartRange is the first BIN bound produced by
// GeneratePResMessage. Successive ranges are contiguous and
// non-overlapping from here upward.
const GenerateStartRange int64 = 4000020000000000

// RNG encapsulates a seeded random number generator.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63n returns a non-negative pseudo-random int64 in [0,n).
func (r *RNG) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63n(n)
}

// Hex returns n pseudo-random lowercase hex characters.
func (r *RNG) Hex(n int) string {
	const digits = "0123456789abcdef"
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		b[i] = digits[r.rand.Intn(len(digits))]
	}
	return string(b)
}

// GeneratePResMessage builds a PRes message with rangeCount contiguous,
// non-overlapping card ranges starting at GenerateStartRange, each
// 1,000,000 to 9,999,999 PANs wide, with per-range 3DS method URLs.
//
// Because the output is sorted by start bound it doubles as a worst-case
// insertion order for an unshuffled tree.
func GeneratePResMessage(rng *RNG, rangeCount int) (*model.PResMessage, error) {
	if rangeCount <= 0 {
		return nil, fmt.Errorf("range count must be positive: %d", rangeCount)
	}
	if rng == nil {
		rng = NewRNG(1)
	}

	ranges := make([]model.CardRange, 0, rangeCount)
	start := GenerateStartRange

	for i := 0; i < rangeCount; i++ {
		size := 1_000_000 + rng.Int63n(9_000_000)
		end := start + size - 1

		ranges = append(ranges, model.CardRange{
			StartRange:              start,
			EndRange:                end,
			ActionInd:               "A",
			ACSEndProtocolVersion:   "2.1.0",
			ThreeDSMethodURL:        fmt.Sprintf("https://secure4.arcot.com/content-server/api/tds2/txn/browser/v1/tds-method/%d", i),
			ACSStartProtocolVersion: "2.1.0",
			ACSInfoInd:              []string{"01", "02"},
		})
		start = end + 1
	}

	return &model.PResMessage{
		SerialNum:     fmt.Sprintf("%d", rng.Intn(10_000_000)),
		MessageType:   "PRes",
		DSTransID:     fmt.Sprintf("%s-%s-%s-%s-%s", rng.Hex(8), rng.Hex(4), rng.Hex(4), rng.Hex(4), rng.Hex(12)),
		CardRangeData: ranges,
	}, nil
}

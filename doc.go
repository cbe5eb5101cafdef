// Package binrange provides an embedded, memory-resident card range (BIN)
// lookup store for Go.
//
// A Store holds up to millions of card ranges in an augmented interval
// tree and answers "which stored range contains this PAN" with
// most-specific-wins conflict resolution: when ranges overlap, the
// narrowest containing range is returned.
//
//   - Thread-safe: lookups run fully in parallel; writes are exclusive
//   - Bulk loading with randomized insertion order and chunked inserts
//   - PRes message ingestion from blob stores (local, S3, MinIO) with
//     optional zstd/lz4 compression
//   - Typed validation errors raised at construction, never later
//
// # Quick Start
//
//	store := binrange.New()
//
//	r, err := model.NewCardRange(4000020000000000, 4000020009999999,
//	    "https://example.com/3ds")
//	if err != nil {
//	    panic(err)
//	}
//	if err := store.Insert(r); err != nil {
//	    panic(err)
//	}
//
//	match, err := store.FindByPAN(4000020005000000)
//	if errors.Is(err, binrange.ErrNotFound) {
//	    // no stored range contains the PAN
//	}
//
// Bulk loads go through InsertBatch (or StorePResMessage for a full PRes
// envelope), which shuffles the insertion order before building the tree.
// The tree does not self-balance, so a sorted feed inserted verbatim
// degenerates into a list; shuffling keeps the expected height
// logarithmic. See the ingest package for loading documents straight out
// of a blob store.
//
// The store is memory-only. Nothing is persisted across restarts; blob
// stores are ingestion sources, not durability.
package binrange

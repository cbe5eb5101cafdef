package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/binrange/blobstore"
	"github.com/hupe1980/binrange/codec"
	"github.com/hupe1980/binrange/model"
)

// Target is the sink a Loader feeds decoded PRes messages into.
// *binrange.Store satisfies it.
type Target interface {
	StorePResMessage(m *model.PResMessage) error
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Codec decodes PRes documents. Defaults to codec.Default.
	Codec codec.Codec

	// Concurrency bounds how many documents are fetched and decoded in
	// parallel. Inserts still serialize on the tree's write lock.
	Concurrency int

	// Logger receives per-document load records. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// DefaultLoaderOptions are the options used by NewLoader.
var DefaultLoaderOptions = LoaderOptions{
	Codec:       codec.Default,
	Concurrency: 4,
}

// Loader bulk-loads PRes documents from a blob store into a Target.
//
// Documents with a .zst or .lz4 suffix are transparently decompressed;
// anything else is read as plain JSON.
type Loader struct {
	store  blobstore.Store
	target Target
	codec  codec.Codec
	conc   int
	logger *slog.Logger
}

// NewLoader creates a Loader reading from store and inserting into target.
func NewLoader(store blobstore.Store, target Target, optFns ...func(*LoaderOptions)) *Loader {
	opts := DefaultLoaderOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Loader{
		store:  store,
		target: target,
		codec:  opts.Codec,
		conc:   opts.Concurrency,
		logger: opts.Logger,
	}
}

// LoadPrefix loads every document under prefix. It returns the total
// number of card ranges inserted. The first failing document aborts the
// remaining fetches; documents already stored stay stored.
func (l *Loader) LoadPrefix(ctx context.Context, prefix string) (int, error) {
	names, err := l.store.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("list %q: %w", prefix, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.conc)

	counts := make([]int, len(names))
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			n, err := l.LoadOne(ctx, name)
			if err != nil {
				return err
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

// LoadOne loads a single document and returns the number of card ranges
// it contained.
func (l *Loader) LoadOne(ctx context.Context, name string) (int, error) {
	start := time.Now()

	rc, err := l.store.Open(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("open %q: %w", name, err)
	}
	defer rc.Close()

	data, err := decompress(rc, name)
	if err != nil {
		return 0, fmt.Errorf("read %q: %w", name, err)
	}

	var msg model.PResMessage
	if err := l.codec.Unmarshal(data, &msg); err != nil {
		return 0, fmt.Errorf("decode %q: %w", name, err)
	}

	if err := l.target.StorePResMessage(&msg); err != nil {
		return 0, fmt.Errorf("store %q: %w", name, err)
	}

	l.logger.InfoContext(ctx, "loaded card range document",
		"name", name,
		"ranges", len(msg.CardRangeData),
		"duration", time.Since(start),
	)
	return len(msg.CardRangeData), nil
}

// decompress reads all of r, undoing zstd or lz4 framing when the blob
// name carries the matching suffix.
func decompress(r io.Reader, name string) ([]byte, error) {
	switch path.Ext(name) {
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case ".lz4":
		return io.ReadAll(lz4.NewReader(r))
	default:
		return io.ReadAll(r)
	}
}

// Compress applies the framing implied by the blob name, mirroring what
// decompress undoes. Plain names pass data through untouched. The seed
// command uses this when publishing documents.
func Compress(data []byte, name string) ([]byte, error) {
	switch path.Ext(name) {
	case ".zst":
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		out := enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return out, nil
	case ".lz4":
		// Streaming writer so the output is a standard lz4 frame
		// that lz4.NewReader can consume.
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return data, nil
	}
}

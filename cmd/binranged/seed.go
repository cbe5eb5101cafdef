package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/binrange/codec"
	"github.com/hupe1980/binrange/ingest"
	"github.com/hupe1980/binrange/testutil"
)

type seedOptions struct {
	count  int
	target string
	name   string
	seed   int64
}

func newSeedCommand() *cobra.Command {
	opts := &seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a PRes seed document and write it to a blob store",
		Long: `Generates contiguous, non-overlapping card ranges and writes them as a
PRes JSON document. A .zst or .lz4 suffix on --name selects the matching
compression; the serve command undoes it transparently on bulk load.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.count, "count", 700_000, "number of card ranges to generate")
	cmd.Flags().StringVar(&opts.target, "target", ".", "blob store target (dir, s3:// or minio://)")
	cmd.Flags().StringVar(&opts.name, "name", "card-ranges.json.zst", "blob name; extension selects compression")
	cmd.Flags().Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "RNG seed")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *seedOptions) error {
	msg, err := testutil.GeneratePResMessage(testutil.NewRNG(opts.seed), opts.count)
	if err != nil {
		return err
	}

	data, err := codec.Default.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode PRes message: %w", err)
	}

	compressed, err := ingest.Compress(data, opts.name)
	if err != nil {
		return fmt.Errorf("compress %q: %w", opts.name, err)
	}

	bs, err := openBlobStore(cmd.Context(), opts.target)
	if err != nil {
		return err
	}
	if err := bs.Put(cmd.Context(), opts.name, compressed); err != nil {
		return fmt.Errorf("write %q: %w", opts.name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d ranges to %s (%d bytes, raw %d)\n",
		opts.count, opts.name, len(compressed), len(data))
	return nil
}

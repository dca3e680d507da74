package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/proteome-lab/kmerspace/pkg/kmer"
	"github.com/proteome-lab/kmerspace/pkg/seqio"
)

// parseK parses a k-mer length argument.
func parseK(arg string) (int, error) {
	k, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("k-mer length %q: %w", arg, kmer.ErrInvalidLength)
	}
	if k < 1 {
		return 0, fmt.Errorf("k-mer length %d: %w", k, kmer.ErrInvalidLength)
	}
	return k, nil
}

func extractCommand(a *app) *cobra.Command {
	var bucket string
	cmd := &cobra.Command{
		Use:   "extract <k> [archive...]",
		Short: "Extract the distinct k-mers of FASTA archives",
		Long: `Extract every distinct k-mer of length k from each archive, skipping windows
that contain a symbol outside the alphabet. Each archive yields a sorted list
named {root}_{k}mers.txt in the output directory. Archives are taken from the
arguments, or from a bucket of the proteome registry with --bucket.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseK(args[0])
			if err != nil {
				return err
			}
			alphabet, err := a.config.Alphabet()
			if err != nil {
				return err
			}
			unit := func(ctx context.Context, path string) (int64, error) {
				return extractArchive(ctx, alphabet, k, path, a.config.Batch.OutputDir, a.logger)
			}
			var bucketArgs []string
			if bucket != "" {
				bucketArgs = []string{bucket}
			}
			return a.runInputs(cmd.Context(), "extract", a.config.Batch.ProteomeRegistryPath, bucketArgs, args[1:], unit)
		},
	}
	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "Proteome registry bucket to extract")
	return cmd
}

// extractArchive writes the k-mer list of one archive and returns its size.
func extractArchive(ctx context.Context, alphabet *kmer.Alphabet, k int, path, outDir string, logger *slog.Logger) (int64, error) {
	set := kmer.NewSet(k)
	records := 0
	err := seqio.StreamPath(ctx, path, func(rec seqio.Record) error {
		records++
		return set.AddSequence(alphabet, rec.Seq)
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	out := filepath.Join(outDir, kmerListName(path, k))
	if err = writeArtifact(out, func(w io.Writer) error {
		_, err := set.WriteTo(w)
		return err
	}); err != nil {
		return 0, err
	}
	logger.Debug("K-mers extracted", "path", path, "output", out, "records", records, "kmers", set.Len())
	return int64(set.Len()), nil
}

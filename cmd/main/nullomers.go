package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/proteome-lab/kmerspace/pkg/kmer"
)

func nullomersCommand(a *app) *cobra.Command {
	var generate bool
	cmd := &cobra.Command{
		Use:   "nullomers <kmer-list>",
		Short: "List the k-mers of the exhaustive space never observed",
		Long: `Read an observed k-mer list, take k from its first line, and write every
k-mer of the exhaustive space absent from it to {k}nullomers_protein.txt.
The space is read from {exhaustive_dir}/{k}mers_{domain}.txt; with --generate
it is produced on the fly instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alphabet, err := a.config.Alphabet()
			if err != nil {
				return err
			}
			r := nullomerResolver{
				alphabet:      alphabet,
				generate:      generate,
				exhaustiveDir: a.config.Batch.ExhaustiveDir,
				domain:        a.config.Engine.Domain,
				outDir:        a.config.Batch.OutputDir,
				sortLimit:     a.config.Engine.SortLimit,
				logger:        a.logger,
			}
			return a.runPaths(cmd.Context(), "nullomers", args, r.resolve)
		},
	}
	cmd.Flags().BoolVarP(&generate, "generate", "g", false, "Generate the exhaustive space instead of reading it")
	return cmd
}

type nullomerResolver struct {
	alphabet      *kmer.Alphabet
	generate      bool
	exhaustiveDir string
	domain        string
	outDir        string
	sortLimit     int
	logger        *slog.Logger
}

// resolve writes the nullomers of the observed list at path and returns
// how many there are. Nullomers are streamed to the output as the space is
// read; only an exhaustive file that turns out not to be ascending is
// buffered, up to sortLimit k-mers, and sorted.
func (r nullomerResolver) resolve(ctx context.Context, path string) (int64, error) {
	observed, err := readSetFile(path, r.alphabet)
	if err != nil {
		return 0, err
	}
	k := observed.K()
	if k == 0 {
		return 0, fmt.Errorf("%s: empty k-mer list: %w", path, kmer.ErrInvalidLength)
	}
	if err = ctx.Err(); err != nil {
		return 0, err
	}

	out := filepath.Join(r.outDir, nullomerName(k))
	var n int
	if r.generate {
		gen, err := kmer.NewGenerator(r.alphabet, k)
		if err != nil {
			return 0, err
		}
		n, err = writeNullomers(ctx, out, observed, gen)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
	} else {
		space := filepath.Join(r.exhaustiveDir, exhaustiveName(k, r.domain))
		n, err = r.resolveFile(ctx, out, observed, space)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
	}

	r.logger.Info("Nullomers resolved", "path", path, "k", k, "observed", observed.Len(), "nullomers", n, "output", out)
	return int64(n), nil
}

// resolveFile streams the exhaustive space file at space through Resolve,
// falling back to a bounded sort if the file is not ascending.
func (r nullomerResolver) resolveFile(ctx context.Context, out string, observed *kmer.Set, space string) (int, error) {
	var n int
	err := withSpaceFile(space, func(ls *kmer.ListStream) error {
		var err error
		n, err = writeNullomers(ctx, out, observed, kmer.Ascending(ls))
		return err
	})
	if !errors.Is(err, kmer.ErrSpaceUnsorted) {
		return n, err
	}

	r.logger.Warn("Exhaustive space is not ascending, sorting nullomers in memory",
		"space", space, "limit", r.sortLimit, "error", err)
	var nullomers []string
	err = withSpaceFile(space, func(ls *kmer.ListStream) error {
		var err error
		nullomers, err = kmer.Difference(observed, ls, r.sortLimit)
		return err
	})
	if err != nil {
		return 0, err
	}
	if err = writeArtifact(out, func(w io.Writer) error {
		_, err := kmer.WriteList(w, nullomers)
		return err
	}); err != nil {
		return 0, err
	}
	return len(nullomers), nil
}

// writeNullomers writes every k-mer of space missing from observed to out,
// one per line, as Resolve produces them.
func writeNullomers(ctx context.Context, out string, observed *kmer.Set, space kmer.Stream) (int, error) {
	var n, written int
	err := writeArtifact(out, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		var err error
		n, err = kmer.Resolve(observed, space, func(s string) error {
			written++
			if written%4096 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(s); err != nil {
				return err
			}
			return bw.WriteByte('\n')
		})
		if err != nil {
			return err
		}
		return bw.Flush()
	})
	return n, err
}

func readSetFile(path string, alphabet *kmer.Alphabet) (*kmer.Set, error) {
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("k-mer list %s: %w", path, kmer.ErrMissingArtifact)
		}
		return nil, err
	}
	defer func(fh *os.File) {
		_ = fh.Close()
	}(fh)
	set, err := kmer.ReadValidSet(fh, alphabet)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// withSpaceFile opens the exhaustive space file at path as a ListStream.
// A missing file is kmer.ErrMissingArtifact.
func withSpaceFile(path string, fn func(ls *kmer.ListStream) error) error {
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("exhaustive space %s: %w", path, kmer.ErrMissingArtifact)
		}
		return err
	}
	defer func(fh *os.File) {
		_ = fh.Close()
	}(fh)
	ls, err := kmer.NewListStream(fh)
	if err != nil {
		return fmt.Errorf("exhaustive space %s: %w", path, err)
	}
	return fn(ls)
}

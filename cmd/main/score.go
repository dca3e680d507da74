package main

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/proteome-lab/kmerspace/pkg/markov"
	"github.com/proteome-lab/kmerspace/pkg/seqio"
)

func scoreCommand(a *app) *cobra.Command {
	var (
		files     []string
		fromStore bool
		tablePath string
	)
	cmd := &cobra.Command{
		Use:   "score [bucket-id]",
		Short: "Score k-mer lists with their proteome's transition table",
		Long: `Score every k-mer of each list in a k-mer registry bucket with the transition
table of the list's identifier (the first two underscore-delimited tokens of
its name). Results are written gzip-compressed, in input order, to
{name}_probabilities.gz in the output directory. Tables come from the
transition table CSV, or from the store with --from-store. Lists whose
identifier has no table are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source markov.TableSource
			if fromStore {
				store, closeStore, err := openStore(a.config.Store, a.logger)
				if err != nil {
					return err
				}
				defer closeStore()
				source = store
			} else {
				if tablePath == "" {
					tablePath = a.config.Batch.TransitionTablePath
				}
				tables, err := markov.LoadTablesFile(tablePath, markov.WithColumns(a.config.Batch.TableColumns))
				if err != nil {
					return err
				}
				a.logger.Info("Transition tables loaded", "path", tablePath, "tables", len(tables))
				source = tables
			}

			unit := func(ctx context.Context, path string) (int64, error) {
				return scoreList(ctx, source, path, a.config.Batch.OutputDir)
			}
			return a.runInputs(cmd.Context(), "score", a.config.Batch.KmerRegistryPath, args, files, unit)
		},
	}
	cmd.Flags().StringSliceVarP(&files, "files", "f", nil, "K-mer lists to score instead of a bucket")
	cmd.Flags().BoolVar(&fromStore, "from-store", false, "Read transition tables from the store")
	cmd.Flags().StringVar(&tablePath, "table", "", "Transition table CSV (default transition_table_path)")
	return cmd
}

// scoreList scores the k-mer list at path and returns how many k-mers were
// scored. The table is looked up before any output is opened.
func scoreList(ctx context.Context, source markov.TableSource, path, outDir string) (int64, error) {
	id := markov.IdentifierForPath(path)
	table, err := source.Table(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	in, err := seqio.Open(path)
	if err != nil {
		return 0, err
	}
	defer func(in io.ReadCloser) {
		_ = in.Close()
	}(in)

	var n int
	out := filepath.Join(outDir, scoredName(path))
	err = writeArtifact(out, func(w io.Writer) error {
		zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
		if err != nil {
			return err
		}
		if n, err = markov.ScoreStream(ctx, in, table, zw); err != nil {
			return err
		}
		return zw.Close()
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return int64(n), nil
}

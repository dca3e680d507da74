package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/proteome-lab/kmerspace/pkg/markov"
	"github.com/proteome-lab/kmerspace/pkg/seqio"
)

func transitionsCommand(a *app) *cobra.Command {
	var (
		files         []string
		caseSensitive bool
	)
	cmd := &cobra.Command{
		Use:   "transitions [bucket-id]",
		Short: "Estimate first-order transition tables of FASTA archives",
		Long: `Estimate, for each archive, the probability of every ordered symbol pair and
the run-length histogram, and write them to {name}_output.csv in the output
directory. With the store enabled, each table is also saved for later scoring
under the identifier of the archive name with its extensions removed, so
UP000005640_9606.fasta.gz is stored as UP000005640_9606.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alphabet, err := a.config.Alphabet()
			if err != nil {
				return err
			}
			var opts []markov.EstimatorOption
			if caseSensitive {
				opts = append(opts, markov.WithCaseSensitive())
			}

			var store *markov.Store
			if a.config.Store.Enabled {
				var closeStore func()
				store, closeStore, err = openStore(a.config.Store, a.logger)
				if err != nil {
					return err
				}
				defer closeStore()
			}

			unit := func(ctx context.Context, path string) (int64, error) {
				e := markov.NewEstimator(alphabet, opts...)
				if err := seqio.StreamPath(ctx, path, func(rec seqio.Record) error {
					e.AddSequence(rec.Seq)
					return nil
				}); err != nil {
					return 0, fmt.Errorf("%s: %w", path, err)
				}
				est := e.Estimate()

				out := filepath.Join(a.config.Batch.OutputDir, reportName(path))
				if err := writeArtifact(out, func(w io.Writer) error {
					return markov.WriteReport(w, est)
				}); err != nil {
					return 0, err
				}
				if store != nil {
					if err := store.SaveEstimate(ctx, markov.Identifier(fileRoot(path)), est); err != nil {
						// The report and the stored table are one artifact set.
						if rmErr := os.Remove(out); rmErr != nil {
							a.logger.Error("Failed to remove report of failed unit", "output", out, "error", rmErr)
						}
						return 0, fmt.Errorf("%s: %w", path, err)
					}
				}
				a.logger.Debug("Transitions estimated", "path", path, "output", out, "sequences", est.Sequences)
				return int64(est.Sequences), nil
			}
			return a.runInputs(cmd.Context(), "transitions", a.config.Batch.ProteomeRegistryPath, args, files, unit)
		},
	}
	cmd.Flags().StringSliceVarP(&files, "files", "f", nil, "Archives to process instead of a bucket")
	cmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "Count lower-case letters as distinct symbols")
	return cmd
}

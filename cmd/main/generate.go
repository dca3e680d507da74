package main

import (
	"bufio"
	"errors"
	"io"
	"math"
	"path/filepath"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/proteome-lab/kmerspace/pkg/kmer"
)

func generateCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "generate <k>",
		Short: "Write the exhaustive k-mer space of the alphabet",
		Long: `Write every string of length k over the alphabet, one per line in ascending
order, to {k}mers_{domain}.txt in the exhaustive directory. The space is
streamed and never held in memory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseK(args[0])
			if err != nil {
				return err
			}
			alphabet, err := a.config.Alphabet()
			if err != nil {
				return err
			}
			gen, err := kmer.NewGenerator(alphabet, k)
			if err != nil {
				return err
			}
			if output == "" {
				output = filepath.Join(a.config.Batch.ExhaustiveDir, exhaustiveName(k, a.config.Engine.Domain))
			}

			count, ok := gen.Count()
			if !ok {
				a.logger.Warn("Exhaustive space size overflows uint64", "k", k, "alphabet", alphabet.String())
			}
			a.logger.Info("Generating exhaustive space", "k", k, "kmers", count, "output", output)
			start := time.Now()

			err = writeArtifact(output, func(w io.Writer) error {
				if !a.progress || !ok || count > math.MaxInt64 {
					_, err := gen.WriteTo(w)
					return err
				}
				return writeWithProgress(w, gen, count)
			})
			if err != nil {
				return err
			}
			a.logger.Info("Exhaustive space written", "output", output, "elapsed", time.Since(start))
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "Output file (default {exhaustive_dir}/{k}mers_{domain}.txt)")
	return cmd
}

// writeWithProgress drains gen into w, advancing a progress bar of total
// count as it goes.
func writeWithProgress(w io.Writer, gen *kmer.Generator, count uint64) error {
	bar := pb.Full.Start64(int64(count))
	defer bar.Finish()

	bw := bufio.NewWriter(w)
	for {
		s, err := gen.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if _, err = bw.WriteString(s); err != nil {
			return err
		}
		if err = bw.WriteByte('\n'); err != nil {
			return err
		}
		bar.Increment()
	}
	return bw.Flush()
}

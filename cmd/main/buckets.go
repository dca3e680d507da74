package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/proteome-lab/kmerspace/pkg/batch"
)

func bucketsCommand(a *app) *cobra.Command {
	var kmers bool
	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "List the buckets of the proteome or k-mer registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.config.Batch.ProteomeRegistryPath
			if kmers {
				path = a.config.Batch.KmerRegistryPath
			}
			reg, err := batch.LoadRegistryFile(path)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "BUCKET\tFILES")
			ids := reg.Buckets()
			for _, id := range ids {
				_, _ = fmt.Fprintf(tw, "%s\t%d\n", id, len(reg[id]))
			}
			if err = tw.Flush(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d buckets in %s\n", len(ids), path)
			return err
		},
	}
	cmd.Flags().BoolVar(&kmers, "kmers", false, "List the k-mer registry instead of the proteome registry")
	return cmd
}

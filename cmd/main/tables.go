package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/proteome-lab/kmerspace/pkg/markov"
)

func tablesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Maintain the transition table store",
	}
	cmd.AddCommand(tablesImportCSVCommand(a))
	cmd.AddCommand(tablesExportCommand(a))
	cmd.AddCommand(tablesImportCommand(a))
	cmd.AddCommand(tablesListCommand(a))
	cmd.AddCommand(tablesRemoveCommand(a))
	return cmd
}

func tablesImportCSVCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import-csv <csv>",
		Short: "Load every table of a wide transition table CSV into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := markov.LoadTablesFile(args[0], markov.WithColumns(a.config.Batch.TableColumns))
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(a.config.Store, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			ids := make([]string, 0, len(tables))
			for id := range tables {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				if err = store.SaveTable(cmd.Context(), id, markov.SourceCSV, tables[id]); err != nil {
					return err
				}
			}
			a.logger.Info("Transition tables imported", "path", args[0], "tables", len(ids))
			return nil
		},
	}
}

func tablesExportCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <identifier>",
		Short: "Write a stored table as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(a.config.Store, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			// Fail before creating the output when the table is unknown.
			if _, err = store.TableInfo(cmd.Context(), args[0]); err != nil {
				return err
			}
			if output == "" {
				return store.ExportTable(cmd.Context(), args[0], cmd.OutOrStdout())
			}
			return writeArtifact(output, func(w io.Writer) error {
				return store.ExportTable(cmd.Context(), args[0], w)
			})
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "Output file (default stdout)")
	return cmd
}

func tablesImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <json>...",
		Short: "Load tables exported with 'tables export'",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(a.config.Store, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			for _, path := range args {
				fh, err := os.Open(path)
				if err != nil {
					return err
				}
				id, err := store.ImportTable(cmd.Context(), fh)
				_ = fh.Close()
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				a.logger.Info("Transition table imported", "path", path, "identifier", id)
			}
			return nil
		},
	}
}

func tablesListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored tables with their statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(a.config.Store, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := store.GetStats(cmd.Context())
			if err != nil {
				return err
			}
			return writeTableList(cmd.OutOrStdout(), stats)
		},
	}
}

func writeTableList(w io.Writer, stats *markov.DBStats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "IDENTIFIER\tSOURCE\tSEQUENCES\tPAIRS\tOBSERVED\tCOUNT")
	for _, info := range stats.Tables {
		st := stats.Stats[info.Id]
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n",
			info.Identifier, info.Source, info.Sequences, st.Transitions, st.ObservedPairs, st.TotalCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d tables\n", stats.TableCount)
	return err
}

func tablesRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <identifier>...",
		Short: "Delete stored tables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(a.config.Store, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			n, err := store.RemoveTables(cmd.Context(), args...)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "removed %d of %d tables\n", n, len(args))
			return err
		},
	}
}

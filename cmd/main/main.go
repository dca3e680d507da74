package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/proteome-lab/kmerspace/pkg/batch"
	"github.com/proteome-lab/kmerspace/pkg/kmer"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	logLevel   string
	workers    int
	outputDir  string
	progress   bool

	config  *Config
	logger  *slog.Logger
	metrics *batch.Metrics
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	config, err := LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		config.LogLevel = a.logLevel
	}
	if flags.Changed("workers") {
		config.Batch.Workers = a.workers
	}
	if flags.Changed("output-dir") {
		config.Batch.OutputDir = a.outputDir
	}
	a.config = config

	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(config.LogLevel)})).
		With(slog.String("run_id", uuid.NewString()))
	a.metrics = batch.NewMetrics()
	a.logger.Debug("Configuration loaded", "path", a.configPath, "command", cmd.Name())
	return nil
}

// finish writes the batch metrics textfile, if one is configured.
func (a *app) finish() {
	if a.config == nil || a.config.Metrics.TextfilePath == "" {
		return
	}
	if err := a.metrics.WriteTextfile(a.config.Metrics.TextfilePath); err != nil {
		a.logger.Error("Failed to write metrics textfile", "path", a.config.Metrics.TextfilePath, "error", err)
	}
}

// runner returns a batch runner wired to the app's logger and metrics.
func (a *app) runner(command string) *batch.Runner {
	r := batch.NewRunner(command, a.config.Batch.Workers)
	r.SetLogger(a.logger.With(slog.String("command", command)))
	r.SetMetrics(a.metrics)
	r.SetProgress(a.progress)
	return r
}

// runBucket resolves id in the registry at registryPath and runs unit over
// its files. A bucket that does not exist is reported and is not an error.
func (a *app) runBucket(ctx context.Context, command, registryPath, id string, unit batch.Unit) error {
	reg, err := batch.LoadRegistryFile(registryPath)
	if err != nil {
		return err
	}
	paths, err := reg.Files(id)
	if errors.Is(err, kmer.ErrIdentifierNotFound) {
		a.logger.Warn("Bucket not found in registry", "bucket", id, "registry", registryPath)
		return nil
	}
	if err != nil {
		return err
	}
	return a.runPaths(ctx, command, paths, unit)
}

// runInputs runs unit over files when any are given, and over the bucket
// named by the single positional argument otherwise.
func (a *app) runInputs(ctx context.Context, command, registryPath string, args, files []string, unit batch.Unit) error {
	if len(files) > 0 {
		return a.runPaths(ctx, command, files, unit)
	}
	if len(args) != 1 {
		return errors.New("expected a bucket id or --files")
	}
	return a.runBucket(ctx, command, registryPath, args[0], unit)
}

// runPaths runs unit over paths and turns failed units into an error.
func (a *app) runPaths(ctx context.Context, command string, paths []string, unit batch.Unit) error {
	defer a.finish()
	summary, err := a.runner(command).Run(ctx, paths, unit)
	if err != nil {
		return err
	}
	return summary.Err()
}

func newRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "kmerspace",
		Short: "Proteome k-mer extraction, nullomer discovery and Markov scoring",
		Long: `kmerspace works on the k-mer space of protein sequence archives:

  - extract the distinct k-mers of FASTA archives
  - generate the exhaustive space of an alphabet
  - resolve nullomers, the k-mers never observed
  - estimate first-order transition tables and score k-mers with them`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "./kmerspace.json", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().IntVarP(&a.workers, "workers", "t", runtime.NumCPU(), "Number of concurrent units")
	rootCmd.PersistentFlags().StringVarP(&a.outputDir, "output-dir", "o", "./out", "Output directory")
	rootCmd.PersistentFlags().BoolVarP(&a.progress, "progress", "p", false, "Show progress bars on stderr")

	rootCmd.AddCommand(extractCommand(a))
	rootCmd.AddCommand(generateCommand(a))
	rootCmd.AddCommand(nullomersCommand(a))
	rootCmd.AddCommand(transitionsCommand(a))
	rootCmd.AddCommand(scoreCommand(a))
	rootCmd.AddCommand(tablesCommand(a))
	rootCmd.AddCommand(bucketsCommand(a))
	rootCmd.AddCommand(versionCommand())
	return rootCmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kmerspace %s (commit %s, built %s)\n", Version, Commit, BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// Package cmd provides the CLI commands for ayatsearch.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
	"github.com/Aman-CERP/ayatsearch/internal/logging"
	"github.com/Aman-CERP/ayatsearch/internal/profiling"
	"github.com/Aman-CERP/ayatsearch/pkg/version"
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// Profiling flags
var (
	profileOpts profiling.Options
	profiler    *profiling.Session
)

// globalFlags are shared by every command that loads a corpus.
type globalFlags struct {
	dir    string
	corpus string
}

// NewRootCmd creates the root command for the ayatsearch CLI.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "ayatsearch",
		Short: "Hybrid lexical and semantic search over Arabic verses",
		Long: `ayatsearch finds verses in a corpus from an Arabic query, tolerating
missing diacritics, spelling variants and small typos.

Single-word queries match lexically. Phrases combine a fuzzy lexical
index with a character fingerprint embedding, and only confident
results are returned.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("ayatsearch version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.ayatsearch/logs/")
	cmd.PersistentFlags().StringVarP(&flags.dir, "dir", "C", ".", "Project directory used to find .ayatsearch.yaml")
	cmd.PersistentFlags().StringVar(&flags.corpus, "corpus", "", "Corpus file (overrides corpus.path)")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newSearchCmd(flags))
	cmd.AddCommand(newNormalizeCmd(flags))
	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newStatsCmd(flags))
	cmd.AddCommand(newEvalCmd(flags))
	cmd.AddCommand(newConfigCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging installs debug logging and starts profiling if
// the flags ask for them.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}

	if profileOpts.Enabled() {
		s, err := profiling.Start(profileOpts)
		if err != nil {
			return err
		}
		profiler = s
	}
	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profiler != nil {
		err = profiler.Stop()
		profiler = nil
	}

	if loggingCleanup != nil {
		slog.Info("debug_logging_stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command and prints a failure the way users expect.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		slog.Debug("command_failed", aerrors.LogAttrs(err)...)
		_, _ = fmt.Fprint(root.ErrOrStderr(), aerrors.FormatForCLI(err))
	}
	return err
}

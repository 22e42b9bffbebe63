package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yumyai/ggintegrate/logger"
	"github.com/yumyai/ggintegrate/pkg/config"
	"github.com/yumyai/ggintegrate/pkg/integrate"
	"github.com/yumyai/ggintegrate/pkg/orthogroup"
)

const VERSION = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {

	// Try load env before the logger so GGINTEGRATE_LOG_LEVEL can come from .env
	dotenvErr := godotenv.Load()

	level, levelErr := logger.ParseLevel(os.Getenv(config.EnvLogLevel))
	if err := logger.InitLogger(level); err != nil {
		fmt.Fprintln(os.Stderr, "Unable to start logger:", err)
		return 1
	}
	defer logger.Sync() // Make sure that the buffered is flushed.

	if dotenvErr != nil {
		logger.Debug("No .env found, using local environment")
	}
	if levelErr != nil {
		logger.Warn("Unknown log level, using info", zap.String(config.EnvLogLevel, os.Getenv(config.EnvLogLevel)))
	}

	cmd := newRootCmd()
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		report(cmd, err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts config.Options

	cmd := &cobra.Command{
		Use:     "ggintegrate --orthogroup_fasta <dir> --scaffold <name|/abs/path> --method <name>",
		Short:   "Merge classified orthogroup fasta files with a gene family scaffold",
		Version: VERSION,
		Long: `ggintegrate concatenates, per orthogroup, the scaffold's fasta/<method>/<id>.faa
(and <id>.fna when present) with the matching file of --orthogroup_fasta, scaffold
content first, into ./integratedGeneFamilies_dir. The output directory must not exist.

Environment (a .env file in the working directory is read first):
  GGINTEGRATE_HOME        install base; scaffold names resolve to $GGINTEGRATE_HOME/data/<scaffold>
  GGINTEGRATE_OUTPUT_DIR  output directory (default ./integratedGeneFamilies_dir)
  GGINTEGRATE_WORKERS     concurrent merges (default 1)
  GGINTEGRATE_MANIFEST    sqlite file recording the run (default off)
  GGINTEGRATE_LOG_LEVEL   debug, info, warn or error`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &config.ConfigError{Msg: fmt.Sprintf("unexpected argument(s): %v", args)}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadSettingsFromEnv()
			if err != nil {
				return err
			}
			for _, name := range settings.Defaulted {
				logger.Debug("Environment variable not set, using default", zap.String("name", name))
			}
			if settings.Home == config.DefaultHome && !filepath.IsAbs(opts.Scaffold) {
				logger.Warn("No local environment (GGINTEGRATE_HOME), resolving scaffolds under ./data")
			}

			cfg, err := config.Resolve(opts, settings)
			if err != nil {
				return err
			}

			_, err = integrate.Run(cmd.Context(), cfg)
			return err
		},
	}

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &config.ConfigError{Msg: err.Error()}
	})

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.StringVar(&opts.OrthogroupFasta, "orthogroup_fasta", "", "directory of <id>.faa/<id>.fna files from the gene family classification step")
	flags.StringVar(&opts.Scaffold, "scaffold", "", "scaffold name (e.g. 22Gv1.1) or absolute path to a scaffold directory")
	flags.StringVar(&opts.Method, "method", "", "clustering method, selects fasta/<method> within the scaffold")

	return cmd
}

func report(cmd *cobra.Command, err error) {
	var cerr *config.ConfigError
	var ferr *orthogroup.InvalidFilenameError

	switch {
	case errors.As(err, &cerr):
		logger.Error(cerr.Error())
		_ = cmd.Usage()
	case errors.As(err, &ferr):
		logger.Error("Invalid orthogroup fasta directory", zap.Error(err))
	case errors.Is(err, integrate.ErrOutputExists):
		logger.Error("Refusing to overwrite previous results", zap.Error(err))
	default:
		logger.Error("Integration failed", zap.Error(err))
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"caretflat/pkg/caretfile"
	"caretflat/pkg/config"
)

var (
	// Global flags
	configPath string
	outputDir  string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "caretflat",
	Short: "Flatten cortical hemispheres and estimate areas from borders",
	Long: `caretflat opens a spherical cortical surface at its medial wall, projects it onto
the plane and applies the standard cuts. It can also cut surfaces along border
projections and convert border uncertainty into per-node areal estimates.

Files are YAML documents; see the cut, flatten and areal subcommands.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("output-dir") {
			cfg.Output.Directory = outputDir
		}
		if verbose {
			cfg.Output.Verbose = true
		}

		// Initialize logger
		zc := zap.NewProductionConfig()
		if cfg.Output.Verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "caretflat.yaml", "Configuration file (defaults apply when missing)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory receiving the produced files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(cutCmd)
	rootCmd.AddCommand(flattenCmd)
	rootCmd.AddCommand(arealCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// outputStore writes into the configured output directory
func outputStore() *caretfile.Store {
	return caretfile.NewStore(cfg.Output.Directory)
}

package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/keagan/reelcut/internal/config"
	"github.com/keagan/reelcut/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	projectFile string
	verbose     bool

	logCloser io.Closer
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "reelcut",
	Short:        "reelcut - short-form video editor",
	Long:         "Edit a timeline of clips, captions and music beds, then export it for social platforms.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load() // best-effort: load .env if present

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Initialize logging
		logCloser, err = logging.Init(logging.Options{
			Verbose:    verbose,
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		})
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./reelcut.yaml)")
	rootCmd.PersistentFlags().StringVarP(&projectFile, "project", "p", "project.yaml", "project file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newCmd, importCmd, infoCmd)
	rootCmd.AddCommand(splitCmd, trimCmd, trimRangeCmd, rippleDeleteCmd, duplicateCmd, moveCmd, removeCmd, volumeCmd, captionCmd)
	rootCmd.AddCommand(exportCmd, interchangeCmd, presetsCmd)
	rootCmd.AddCommand(configCmd)
}

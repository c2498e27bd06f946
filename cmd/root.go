package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"edefter/internal/config"
	"edefter/internal/logger"
)

var version = "1.0.0"

// appConfig is set by Execute before any command runs.
var appConfig = config.Default()

var rootCmd = &cobra.Command{
	Use:   "edefter",
	Short: "E-Defter takip aracı - dönem dosyaları, son tarihler ve otomasyon",
	Long: `edefter tracks the monthly e-defter (electronic ledger) submissions of the
customers of an accounting office.

It scans the e-defter folder tree for the four ledger artifacts of every
period, computes statutory submission deadlines, reports incomplete and
overdue periods, and in watch mode backs up and e-mails each period once
it becomes complete.

Configuration is read from the environment and an optional .env file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with cfg.
func Execute(cfg *config.Config) {
	log := logger.WithComponent("cmd")

	if cfg != nil {
		appConfig = cfg
	}

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	log := logger.WithComponent("cmd")
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func init() {
	rootCmd.PersistentFlags().String("source", "", "E-defter root folder (default: SOURCE_FOLDER)")
}

// sourceFolder returns the --source flag or the configured folder.
func sourceFolder(cmd *cobra.Command) (string, error) {
	source, _ := cmd.Flags().GetString("source")
	if source == "" {
		source = appConfig.SourceFolder
	}
	if source == "" {
		return "", fmt.Errorf("no source folder: set SOURCE_FOLDER or pass --source")
	}
	return source, nil
}

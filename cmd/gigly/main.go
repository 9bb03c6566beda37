// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command gigly is the terminal client of the Gigly marketplace.
//
// It signs a client or helper in through the phone (and institutional email)
// challenge, keeps the session on disk between runs and walks the onboarding
// stages. Configuration comes from GIGLY_* environment variables.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/gigly/internal/app"
	"github.com/taibuivan/gigly/internal/platform/apperr"
	"github.com/taibuivan/gigly/internal/platform/config"
	"github.com/taibuivan/gigly/pkg/slice"
)

var (
	// Global flags
	verbose bool
	timeout time.Duration

	logger *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gigly",
	Short: "Gigly marketplace client",
	Long: `gigly signs you in to the Gigly marketplace as a client or a helper.

The session is kept between runs (see GIGLY_STORAGE and GIGLY_STATE_FILE);
an expired access token is refreshed transparently.

Example:
  gigly login --role helper --phone 090-1234-5678
  gigly status
  gigly profile --name "Aiko" --institution "Kyoto University"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(profileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

// commandContext bounds a command by --timeout and cancels it on SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	return ctx, func() {
		stop()
		cancel()
	}
}

// openApp loads the configuration and assembles the runtime.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, logger)
}

// describe renders err for the terminal, field details included.
func describe(err error) string {
	appError := apperr.As(err)
	if appError == nil {
		return err.Error()
	}

	if len(appError.Details) == 0 {
		return appError.Message
	}

	fields := slice.Map(appError.Details, func(detail apperr.FieldError) string {
		return detail.Field + ": " + detail.Message
	})
	return appError.Message + " (" + strings.Join(fields, "; ") + ")"
}

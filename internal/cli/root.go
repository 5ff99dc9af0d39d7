package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/vetclinic/internal/control"
	"github.com/vietddude/vetclinic/internal/core/config"
	"github.com/vietddude/vetclinic/internal/infra/api"
	"github.com/vietddude/vetclinic/internal/infra/kv"
)

var (
	cfgPath   string
	isDebug   bool
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:           "vetclinic",
	Short:         "Veterinary clinic API client",
	Long:          `vetclinic talks to the clinic backend with retries and a last-good-response cache for reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, api.ErrCancelled) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "operation cancelled")
		} else {
			fmt.Fprintln(os.Stderr, "Error:", api.ErrorMessage(err))
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (defaults apply when empty)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep session and cache in memory only")
}

// loadConfig reads .env, the config file and sets up logging.
func loadConfig() (*config.AppConfig, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		return nil, err
	}

	// Setup logging
	slogLevel := slog.LevelInfo
	switch {
	case isDebug || cfg.Logging.Level == "debug":
		slogLevel = slog.LevelDebug
	case cfg.Logging.Level == "warn":
		slogLevel = slog.LevelWarn
	case cfg.Logging.Level == "error":
		slogLevel = slog.LevelError
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
	return cfg, nil
}

// withApp runs fn against a fully wired App.
func withApp(fn func(ctx context.Context, app *control.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		var opts control.Options
		if ephemeral {
			opts.Store = kv.NewMemoryStore()
		}
		app, err := control.NewApp(cmd.Context(), cfg, opts)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				slog.Warn("Failed to close app", "error", err)
			}
		}()

		return fn(cmd.Context(), app, args)
	}
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/vetclinic/internal/devserver"
)

var (
	devAddr string
	devSeed bool
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory clinic backend for local testing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		dc := devserver.Config{
			Addr:  cfg.DevServer.Addr,
			Token: cfg.DevServer.Token,
			Seed:  cfg.DevServer.Seed,
		}
		if cmd.Flags().Changed("seed") {
			dc.Seed = devSeed
		}
		if devAddr != "" {
			dc.Addr = devAddr
		}
		srv := devserver.New(dc, slog.Default())

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		select {
		case err := <-errCh:
			return err
		case <-cmd.Context().Done():
		}

		slog.Info("Shutting down dev server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(ctx)
	},
}

func init() {
	devserverCmd.Flags().StringVar(&devAddr, "addr", "", "listen address (overrides config)")
	devserverCmd.Flags().BoolVar(&devSeed, "seed", false, "load the demo clinic (overrides config)")
	rootCmd.AddCommand(devserverCmd)
}

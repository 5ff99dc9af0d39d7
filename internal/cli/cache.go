package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/vetclinic/internal/control"
	"github.com/vietddude/vetclinic/internal/core/worker"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or purge the fallback cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached report responses",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, app *control.App, _ []string) error {
		if app.Cache == nil {
			return errors.New("fallback cache is disabled")
		}
		return printCacheEntries(ctx, app)
	}),
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every cached report response",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, app *control.App, _ []string) error {
		if app.Cache == nil {
			return errors.New("fallback cache is disabled")
		}
		n, err := app.Cache.Purge(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d cache keys\n", n)
		return nil
	}),
}

var pruneOlderThan time.Duration

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cached responses older than --older-than",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, app *control.App, _ []string) error {
		if app.Cache == nil {
			return errors.New("fallback cache is disabled")
		}
		if pruneOlderThan <= 0 {
			return errors.New("--older-than must be positive")
		}
		n, err := worker.NewPruner(app.Cache, pruneOlderThan, slog.Default()).PruneOnce(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d entries\n", n)
		return nil
	}),
}

func init() {
	cachePruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 7*24*time.Hour, "age threshold")
	cacheCmd.AddCommand(cacheListCmd, cachePurgeCmd, cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func printCacheEntries(ctx context.Context, app *control.App) error {
	entries, err := app.Cache.Entries(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "KEY\tSTORED\tAGE\tBYTES\tSERVED")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\n",
			e.Key, e.StoredAt.Local().Format("2006-01-02 15:04:05"), age(e.StoredAt), e.Size, e.Served)
	}
	return w.Flush()
}

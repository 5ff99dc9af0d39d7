package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/vetclinic/internal/control"
	"github.com/vietddude/vetclinic/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the backend, session and fallback cache state",
	Args:  cobra.NoArgs,
	RunE:  withApp(runStatus),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE:  withApp(runWhoami),
}

func init() {
	rootCmd.AddCommand(statusCmd, whoamiCmd)
}

func runStatus(ctx context.Context, app *control.App, _ []string) error {
	cfg := app.Config()
	snap := app.Session.Snapshot()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "MODE\t%s\n", cfg.Mode)
	_, _ = fmt.Fprintf(w, "BACKEND\t%s\n", cfg.BaseURL())
	_, _ = fmt.Fprintf(w, "STORE\t%s\n", cfg.Store.Driver)
	if err := app.StoreHealth(ctx); err != nil {
		_, _ = fmt.Fprintf(w, "STORE HEALTH\tunreachable: %v\n", err)
	} else {
		_, _ = fmt.Fprintln(w, "STORE HEALTH\tok")
	}
	_, _ = fmt.Fprintf(w, "LOGGED IN\t%t\n", snap.Authenticated())
	if snap.User != nil {
		_, _ = fmt.Fprintf(w, "USER\t%s <%s>\n", snap.User.FullName(), snap.User.Email)
	}
	_ = w.Flush()

	if app.Cache == nil {
		fmt.Println("\nfallback cache disabled")
		return nil
	}
	fmt.Println()
	return printCacheEntries(ctx, app)
}

func runWhoami(_ context.Context, app *control.App, _ []string) error {
	snap := app.Session.Snapshot()
	if !snap.Authenticated() {
		fmt.Println("not logged in")
		return nil
	}
	if snap.User == nil {
		fmt.Println("logged in (no profile stored)")
		return nil
	}

	u := snap.User
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "ID\t%d\n", u.ID)
	_, _ = fmt.Fprintf(w, "NAME\t%s\n", u.FullName())
	_, _ = fmt.Fprintf(w, "EMAIL\t%s\n", u.Email)
	_, _ = fmt.Fprintf(w, "ROLE\t%s\n", domain.Label(u.RoleName()))
	_, _ = fmt.Fprintf(w, "STATUS\t%s\n", domain.Label(u.Status))
	return w.Flush()
}

// age renders how long ago t was, rounded to seconds.
func age(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return time.Since(t).Round(time.Second).String()
}

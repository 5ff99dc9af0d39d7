package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/vetclinic/internal/clinic"
	"github.com/vietddude/vetclinic/internal/control"
)

var (
	rangeStart string
	rangeEnd   string
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Show the reports dashboard",
	Long: `Reports fetches every dashboard section at once. Vaccines, monthly activity
and species distribution fall back to the last good response when the backend
is unavailable; those sections are marked "(cached)".`,
	Args: cobra.NoArgs,
	RunE: withApp(runReports),
}

func init() {
	reportsCmd.Flags().StringVar(&rangeStart, "start", "", "range start (YYYY-MM-DD)")
	reportsCmd.Flags().StringVar(&rangeEnd, "end", "", "range end (YYYY-MM-DD)")
	rootCmd.AddCommand(reportsCmd)
}

func runReports(ctx context.Context, app *control.App, _ []string) error {
	d, err := app.Services.Reports.Dashboard(ctx, rangeStart, rangeEnd)
	if err != nil {
		return err
	}
	printDashboard(d)
	return nil
}

func printDashboard(d *clinic.Dashboard) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total patients\t%d\n", d.TotalPatients.Total)
	_, _ = fmt.Fprintf(w, "Consultations this month\t%d\n", d.ConsultationsThisMonth.Total)
	_, _ = fmt.Fprintf(w, "Vaccines applied\t%d%s\n", d.VaccinesApplied.Value.Total, cachedTag(d.VaccinesApplied.FromCache))
	_, _ = fmt.Fprintf(w, "History entries\t%d\n", len(d.Histories))
	_ = w.Flush()

	fmt.Printf("\nMonthly activity%s\n", cachedTag(d.MonthlyActivity.FromCache))
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "PERIOD\tCONSULTATIONS\tVACCINES\tTREATMENTS\tSURGERIES")
	for _, p := range d.MonthlyActivity.Value.Points {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", p.Label, p.Consultations, p.Vaccines, p.Treatments, p.Surgeries)
	}
	_ = w.Flush()

	fmt.Printf("\nSpecies distribution%s\n", cachedTag(d.SpeciesDistribution.FromCache))
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "SPECIES\tCOUNT\tSHARE")
	for _, s := range d.SpeciesDistribution.Value {
		share := "-"
		if s.Percentage != nil {
			share = fmt.Sprintf("%.1f%%", *s.Percentage)
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", s.Species, s.Count, share)
	}
	_ = w.Flush()

	if ops := d.FromCache(); len(ops) > 0 {
		fmt.Printf("\nServed from cache: %s\n", strings.Join(ops, ", "))
	}
}

func cachedTag(fromCache bool) string {
	if fromCache {
		return " (cached)"
	}
	return ""
}

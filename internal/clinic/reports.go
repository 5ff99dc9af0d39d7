package clinic

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/vetclinic/internal/core/domain"
	"github.com/vietddude/vetclinic/internal/infra/api"
	"github.com/vietddude/vetclinic/internal/infra/api/fallback"
	"github.com/vietddude/vetclinic/internal/infra/api/transport"
)

// Cache-eligible report operations.
const (
	OpVaccinesApplied     = "vacunas-aplicadas"
	OpMonthlyActivity     = "actividad-mensual"
	OpSpeciesDistribution = "distribucion-especies"
)

type ReportService struct {
	client *api.Client
}

// Histories lists all history records for the report tables.
func (s *ReportService) Histories(ctx context.Context) ([]domain.Record, error) {
	return send[[]domain.Record](ctx, s.client, transport.Get("reports.histories", "/historiales"))
}

func (s *ReportService) TotalPatients(ctx context.Context) (domain.Total, error) {
	return send[domain.Total](ctx, s.client, transport.Get("reports.total_patients", "/reportes/total-pacientes"))
}

func (s *ReportService) ConsultationsThisMonth(ctx context.Context) (domain.Total, error) {
	return send[domain.Total](ctx, s.client, transport.Get("reports.consultations_month", "/reportes/consultas-este-mes"))
}

// VaccinesApplied counts vaccines in [start, end]. Empty bounds are omitted.
func (s *ReportService) VaccinesApplied(ctx context.Context, start, end string) (Cached[domain.Total], error) {
	return cached[domain.Total](ctx, s.client, rangeQuery(OpVaccinesApplied, "/reportes/vacunas-aplicadas", start, end))
}

// MonthlyActivity returns the activity chart for [start, end]. An aggregate
// answer is labelled with the range.
func (s *ReportService) MonthlyActivity(ctx context.Context, start, end string) (Cached[domain.MonthlyActivity], error) {
	c, err := cached[domain.MonthlyActivity](ctx, s.client, rangeQuery(OpMonthlyActivity, "/reportes/actividad-mensual", start, end))
	if err != nil {
		return c, err
	}
	c.Value.Labelled(start, end)
	return c, nil
}

func (s *ReportService) SpeciesDistribution(ctx context.Context) (Cached[[]domain.SpeciesShare], error) {
	d := transport.Get("reports."+OpSpeciesDistribution, "/reportes/"+OpSpeciesDistribution).
		WithCacheKey(fallback.Key(OpSpeciesDistribution, nil))
	return cached[[]domain.SpeciesShare](ctx, s.client, d)
}

func rangeQuery(op, path, start, end string) transport.Descriptor {
	return transport.Get("reports."+op, path).
		WithQuery("start", start).
		WithQuery("end", end).
		WithCacheKey(fallback.Key(op, map[string]string{"start": start, "end": end}))
}

// Dashboard is every report section of the reports screen.
type Dashboard struct {
	Histories              []domain.Record
	TotalPatients          domain.Total
	ConsultationsThisMonth domain.Total
	VaccinesApplied        Cached[domain.Total]
	MonthlyActivity        Cached[domain.MonthlyActivity]
	SpeciesDistribution    Cached[[]domain.SpeciesShare]
}

// FromCache lists the sections that were served from the fallback cache.
func (d *Dashboard) FromCache() []string {
	var ops []string
	if d.VaccinesApplied.FromCache {
		ops = append(ops, OpVaccinesApplied)
	}
	if d.MonthlyActivity.FromCache {
		ops = append(ops, OpMonthlyActivity)
	}
	if d.SpeciesDistribution.FromCache {
		ops = append(ops, OpSpeciesDistribution)
	}
	return ops
}

// Dashboard fetches all six sections concurrently and returns the first
// failure. Siblings of a failed section are not cancelled: they run to
// completion so cache-eligible sections still record their responses.
func (s *ReportService) Dashboard(ctx context.Context, start, end string) (*Dashboard, error) {
	var out Dashboard
	var g errgroup.Group

	g.Go(func() (err error) {
		out.Histories, err = s.Histories(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.TotalPatients, err = s.TotalPatients(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.ConsultationsThisMonth, err = s.ConsultationsThisMonth(ctx)
		return err
	})
	g.Go(func() (err error) {
		out.VaccinesApplied, err = s.VaccinesApplied(ctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		out.MonthlyActivity, err = s.MonthlyActivity(ctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		out.SpeciesDistribution, err = s.SpeciesDistribution(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Range refreshes only the date-filtered sections. Like Dashboard, a failure
// does not cancel the other section.
func (s *ReportService) Range(ctx context.Context, start, end string) (Cached[domain.Total], Cached[domain.MonthlyActivity], error) {
	var (
		vaccines Cached[domain.Total]
		activity Cached[domain.MonthlyActivity]
		g        errgroup.Group
	)
	g.Go(func() (err error) {
		vaccines, err = s.VaccinesApplied(ctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		activity, err = s.MonthlyActivity(ctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return vaccines, activity, err
	}
	return vaccines, activity, nil
}

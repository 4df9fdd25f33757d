package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/salonledger/salonledger/internal/dates"
	"github.com/salonledger/salonledger/internal/forecast"
	"github.com/salonledger/salonledger/internal/ledger"
	"github.com/salonledger/salonledger/internal/platform/httpx"
)

// Source reads the ledger tables reports are computed from.
type Source interface {
	ListServiceSales(ctx context.Context, filter ledger.Filter) ([]ledger.ServiceSale, error)
	ListProductSales(ctx context.Context, filter ledger.Filter) ([]ledger.ProductSale, error)
	ListExpenses(ctx context.Context, filter ledger.Filter) ([]ledger.Expense, error)
	ListInventory(ctx context.Context, filter ledger.Filter) ([]ledger.InventoryItem, error)
	ListFixedExpenses(ctx context.Context, filter ledger.Filter, month string) ([]ledger.FixedExpense, error)
}

// BranchRegistry resolves and enumerates branches.
type BranchRegistry interface {
	Resolve(ctx context.Context, branch string) (string, error)
	Branches(ctx context.Context) ([]string, error)
}

// Service computes and caches reports.
type Service struct {
	source   Source
	branches BranchRegistry
	cache    *Cache
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the report service. cache may be nil.
func NewService(source Source, branches BranchRegistry, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, branches: branches, cache: cache, logger: logger, now: time.Now}
}

// WithClock replaces the clock that resolves today.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// part selects the tables a report needs.
type part uint8

const (
	partServices part = 1 << iota
	partProducts
	partExpenses
	partInventory
	partFixed
)

// load reads the requested tables concurrently.
func (s *Service) load(ctx context.Context, filter ledger.Filter, parts part) (Dataset, error) {
	var ds Dataset
	g, gctx := errgroup.WithContext(ctx)
	if parts&partServices != 0 {
		g.Go(func() (err error) {
			ds.Services, err = s.source.ListServiceSales(gctx, filter)
			return err
		})
	}
	if parts&partProducts != 0 {
		g.Go(func() (err error) {
			ds.Products, err = s.source.ListProductSales(gctx, filter)
			return err
		})
	}
	if parts&partExpenses != 0 {
		g.Go(func() (err error) {
			ds.Expenses, err = s.source.ListExpenses(gctx, filter)
			return err
		})
	}
	if parts&partInventory != 0 {
		g.Go(func() (err error) {
			ds.Inventory, err = s.source.ListInventory(gctx, filter)
			return err
		})
	}
	if parts&partFixed != 0 {
		g.Go(func() (err error) {
			ds.FixedExpenses, err = s.source.ListFixedExpenses(gctx, filter, "")
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Dataset{}, fmt.Errorf("reports: load dataset: %w", err)
	}
	return ds, nil
}

// cached serves dest from the report cache, computing it on a miss. When
// redis fails the report is computed directly.
func (s *Service) cached(ctx context.Context, dest any, compute func(context.Context) (any, error), parts ...string) error {
	key, err := s.cache.BuildKey(ctx, append([]string{"reports"}, parts...)...)
	if err == nil {
		var computeErr error
		err = s.cache.FetchJSON(ctx, key, dest, func(ctx context.Context) (any, error) {
			value, err := compute(ctx)
			computeErr = err
			return value, err
		})
		if err == nil || computeErr != nil {
			return err
		}
	}
	s.logger.Warn("report cache unavailable", slog.String("report", strings.Join(parts, ":")), slog.Any("error", err))
	return NewCache(nil, 0).FetchJSON(ctx, "", dest, compute)
}

// Summary returns the daily summary of branch on day (YYYY-MM-DD). Empty
// values mean today and the default branch.
func (s *Service) Summary(ctx context.Context, day, branch string) (DailySummary, error) {
	d, err := s.parseDay(day)
	if err != nil {
		return DailySummary{}, err
	}
	branch, err = s.branches.Resolve(ctx, branch)
	if err != nil {
		return DailySummary{}, err
	}
	var out DailySummary
	err = s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		ds, err := s.load(ctx, ledger.Filter{Branch: branch}, partServices|partProducts|partExpenses)
		if err != nil {
			return nil, err
		}
		return BuildDailySummary(ds, d, branch), nil
	}, "summary", branch, dates.Format(d))
	return out, err
}

// Printable returns the daily summary shaped for PDF rendering.
func (s *Service) Printable(ctx context.Context, day, branch string) (Printable, error) {
	summary, err := s.Summary(ctx, day, branch)
	if err != nil {
		return Printable{}, err
	}
	return ToPrintable(summary), nil
}

// Statistics returns the monthly statistics for month (YYYY-MM, empty for
// the current month). An empty branch aggregates every branch.
func (s *Service) Statistics(ctx context.Context, month, branch string) (Statistics, error) {
	m := dates.MonthOf(s.today())
	if strings.TrimSpace(month) != "" {
		var ok bool
		if m, ok = dates.ParseMonth(month); !ok {
			return Statistics{}, httpx.Errorf(httpx.ErrValidation, "Mes inválido: %s", month)
		}
	}
	if strings.TrimSpace(branch) != "" {
		var err error
		if branch, err = s.branches.Resolve(ctx, branch); err != nil {
			return Statistics{}, err
		}
	}
	var out Statistics
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		ds, err := s.load(ctx, ledger.Filter{Branch: branch}, partServices|partProducts|partExpenses|partInventory|partFixed)
		if err != nil {
			return nil, err
		}
		return BuildStatistics(ds, m), nil
	}, "statistics", branchToken(branch), m.String())
	return out, err
}

// Prediction forecasts the next week of revenue for branch.
func (s *Service) Prediction(ctx context.Context, branch string) (forecast.RevenueForecast, error) {
	branch, err := s.branches.Resolve(ctx, branch)
	if err != nil {
		return forecast.RevenueForecast{}, err
	}
	today := s.today()
	var out forecast.RevenueForecast
	err = s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		daily, err := s.dailyRevenue(ctx, branch)
		if err != nil {
			return nil, err
		}
		return forecast.Revenue(daily, today), nil
	}, "prediction", branch, dates.Format(today))
	return out, err
}

// Demand forecasts the next week of demand per service category for branch.
func (s *Service) Demand(ctx context.Context, branch string) (forecast.DemandForecast, error) {
	branch, err := s.branches.Resolve(ctx, branch)
	if err != nil {
		return forecast.DemandForecast{}, err
	}
	today := s.today()
	var out forecast.DemandForecast
	err = s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		ds, err := s.load(ctx, ledger.Filter{Branch: branch}, partServices)
		if err != nil {
			return nil, err
		}
		events := make([]forecast.ServiceEvent, 0, len(ds.Services))
		for _, sale := range ds.Services {
			if day, ok := dates.Normalize(sale.Fecha); ok {
				events = append(events, forecast.ServiceEvent{Day: day, Service: sale.Service})
			}
		}
		return forecast.Demand(events, today), nil
	}, "demand", branch, dates.Format(today))
	return out, err
}

// Patterns analyses revenue by weekday for branch over its whole history.
func (s *Service) Patterns(ctx context.Context, branch string) (forecast.RevenuePatterns, error) {
	branch, err := s.branches.Resolve(ctx, branch)
	if err != nil {
		return forecast.RevenuePatterns{}, err
	}
	var out forecast.RevenuePatterns
	err = s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		daily, err := s.dailyRevenue(ctx, branch)
		if err != nil {
			return nil, err
		}
		return forecast.Patterns(daily), nil
	}, "patterns", branch)
	return out, err
}

// Warm precomputes today's reports for every branch.
func (s *Service) Warm(ctx context.Context) (int, error) {
	branches, err := s.branches.Branches(ctx)
	if err != nil {
		return 0, err
	}
	warmed := 0
	if _, err := s.Statistics(ctx, "", ""); err != nil {
		return warmed, err
	}
	warmed++
	for _, branch := range branches {
		if _, err := s.Summary(ctx, "", branch); err != nil {
			return warmed, err
		}
		if _, err := s.Statistics(ctx, "", branch); err != nil {
			return warmed, err
		}
		if _, err := s.Prediction(ctx, branch); err != nil {
			return warmed, err
		}
		if _, err := s.Demand(ctx, branch); err != nil {
			return warmed, err
		}
		if _, err := s.Patterns(ctx, branch); err != nil {
			return warmed, err
		}
		warmed += 5
	}
	return warmed, nil
}

// Bump drops every cached report.
func (s *Service) Bump(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// dailyRevenue sums service and product sales per calendar day.
func (s *Service) dailyRevenue(ctx context.Context, branch string) ([]forecast.Point, error) {
	ds, err := s.load(ctx, ledger.Filter{Branch: branch}, partServices|partProducts)
	if err != nil {
		return nil, err
	}
	observations := make([]forecast.Point, 0, len(ds.Services)+len(ds.Products))
	for _, sale := range ds.Services {
		if day, ok := dates.Normalize(sale.Fecha); ok {
			observations = append(observations, forecast.Point{Day: day, Value: sale.Amount})
		}
	}
	for _, sale := range ds.Products {
		if day, ok := dates.Normalize(sale.Fecha); ok {
			observations = append(observations, forecast.Point{Day: day, Value: sale.Amount})
		}
	}
	return forecast.Daily(observations), nil
}

func (s *Service) parseDay(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return s.today(), nil
	}
	d, ok := dates.ParseDay(value)
	if !ok {
		return time.Time{}, httpx.Errorf(httpx.ErrValidation, "Fecha inválida: %s", value)
	}
	return d, nil
}

func (s *Service) today() time.Time {
	return dates.Today(s.now())
}

func branchToken(branch string) string {
	if branch == "" {
		return "all"
	}
	return branch
}

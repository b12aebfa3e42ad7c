package services

import (
	"context"
	"errors"
	"fmt"

	"ims_backend/internal/models"
	"ims_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLowStockThreshold = 10
	defaultTopProductsLimit  = 5
	maxTopProductsLimit      = 100
	earliestDate             = "0001-01-01"
)

var tracer = otel.Tracer("ims_backend/internal/services")

// ReportService builds the sales, credit, inventory and supplier reports.
type ReportService interface {
	DailyReport(ctx context.Context, reportDate *string) (*models.Report, error)
	PeriodReport(ctx context.Context, startDate, endDate *string) (*models.Report, error)
	CreditsReport(ctx context.Context, status *string) ([]models.Credit, error)
	InventoryReport(ctx context.Context, threshold *int) ([]models.InventoryReportItem, error)
	SuppliersReport(ctx context.Context) ([]models.SupplierBalanceItem, error)
	TopProducts(ctx context.Context, startDate, endDate *string, limit *int) ([]models.TopProductItem, error)
	DashboardSummary(ctx context.Context) (*models.DashboardSummary, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
	dayRepo    repositories.DayRepository
	clock      BusinessClock
}

// NewReportService creates a new instance of ReportService.
func NewReportService(reportRepo repositories.ReportRepository, dayRepo repositories.DayRepository, clock BusinessClock) ReportService {
	return &reportService{reportRepo: reportRepo, dayRepo: dayRepo, clock: clock}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// buildReport runs the report sections concurrently over an inclusive date range.
func (s *reportService) buildReport(ctx context.Context, start, end string) (*models.Report, error) {
	report := &models.Report{StartDate: start, EndDate: end}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.SalesSummary, err = s.reportRepo.SalesSummary(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		report.SalesByEmployee, err = s.reportRepo.SalesByEmployee(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		report.SalesByCategory, err = s.reportRepo.SalesByCategory(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		report.SalesByPaymentMethod, err = s.reportRepo.SalesByPaymentMethod(gctx, start, end)
		return err
	})
	g.Go(func() (err error) {
		report.CreditSummary, err = s.reportRepo.CreditSummary(gctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build report for %s..%s: %w", start, end, err)
	}
	return report, nil
}

func (s *reportService) DailyReport(ctx context.Context, reportDate *string) (report *models.Report, err error) {
	ctx, span := tracer.Start(ctx, "ReportService.DailyReport")
	defer func() { endSpan(span, err) }()

	date, err := parseDateParam("report_date", reportDate)
	if err != nil {
		return nil, err
	}
	day := s.clock.Today()
	if date != nil {
		day = *date
	}
	span.SetAttributes(attribute.String("report.date", day))

	report, err = s.buildReport(ctx, day, day)
	if err != nil {
		return nil, err
	}

	salesDay, err := s.dayRepo.GetDayByDate(nil, day)
	switch {
	case err == nil:
		report.DayReport = &models.DayReport{
			Date:     salesDay.Date,
			IsOpen:   salesDay.IsOpen,
			OpenedBy: salesDay.OpenedByName,
			ClosedBy: salesDay.ClosedByName,
		}
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to load sales day %s: %w", day, err)
	}
	return report, nil
}

func (s *reportService) PeriodReport(ctx context.Context, startDate, endDate *string) (report *models.Report, err error) {
	ctx, span := tracer.Start(ctx, "ReportService.PeriodReport")
	defer func() { endSpan(span, err) }()

	if startDate == nil || *startDate == "" || endDate == nil || *endDate == "" {
		return nil, validationError("start_date and end_date are required")
	}
	start, end, err := validateDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("report.start_date", *start), attribute.String("report.end_date", *end))
	return s.buildReport(ctx, *start, *end)
}

func (s *reportService) CreditsReport(ctx context.Context, status *string) (credits []models.Credit, err error) {
	ctx, span := tracer.Start(ctx, "ReportService.CreditsReport")
	defer func() { endSpan(span, err) }()

	if status != nil && *status != "" && *status != models.CreditOpen && *status != models.CreditCleared {
		return nil, validationError("status must be open or cleared")
	}
	credits, err = s.reportRepo.Credits(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to build credits report: %w", err)
	}
	return credits, nil
}

func (s *reportService) InventoryReport(ctx context.Context, threshold *int) (items []models.InventoryReportItem, err error) {
	ctx, span := tracer.Start(ctx, "ReportService.InventoryReport")
	defer func() { endSpan(span, err) }()

	limit := defaultLowStockThreshold
	if threshold != nil {
		if *threshold < 0 {
			return nil, validationError("threshold cannot be negative")
		}
		limit = *threshold
	}
	items, err = s.reportRepo.LowStock(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory report: %w", err)
	}
	return items, nil
}

func (s *reportService) SuppliersReport(ctx context.Context) (items []models.SupplierBalanceItem, err error) {
	ctx, span := tracer.Start(ctx, "ReportService.SuppliersReport")
	defer func() { endSpan(span, err) }()

	items, err = s.reportRepo.SupplierBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build suppliers report: %w", err)
	}
	return items, nil
}

// TopProducts defaults to all sales up to today when no range is given.
func (s *reportService) TopProducts(ctx context.Context, startDate, endDate *string, limit *int) (items []models.TopProductItem, err error) {
	ctx, span := tracer.Start(ctx, "ReportService.TopProducts")
	defer func() { endSpan(span, err) }()

	start, end, err := validateDateRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	from, to := earliestDate, s.clock.Today()
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}
	n := defaultTopProductsLimit
	if limit != nil {
		if *limit < 1 || *limit > maxTopProductsLimit {
			return nil, validationError("limit must be between 1 and %d", maxTopProductsLimit)
		}
		n = *limit
	}

	items, err = s.reportRepo.TopProducts(ctx, from, to, n)
	if err != nil {
		return nil, fmt.Errorf("failed to build top products report: %w", err)
	}
	return items, nil
}

func (s *reportService) DashboardSummary(ctx context.Context) (summary *models.DashboardSummary, err error) {
	ctx, span := tracer.Start(ctx, "ReportService.DashboardSummary")
	defer func() { endSpan(span, err) }()

	today := s.clock.Today()
	summary = &models.DashboardSummary{
		Date:               today,
		SalesToday:         decimal.Zero,
		OpenCreditsTotal:   decimal.Zero,
		SupplierBalanceDue: decimal.Zero,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sales, err := s.reportRepo.SalesSummary(gctx, today, today)
		if err != nil {
			return err
		}
		summary.SalesToday = sales.TotalSales
		summary.NumberOfSalesToday = sales.NumberOfSales
		return nil
	})
	g.Go(func() error {
		_, err := s.dayRepo.GetOpenDay(nil)
		if err == nil {
			summary.DayOpen = true
			return nil
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return err
	})
	g.Go(func() (err error) {
		summary.OpenCreditsTotal, summary.NumberOfOpenCredits, err = s.reportRepo.OpenCreditTotals(gctx)
		return err
	})
	g.Go(func() (err error) {
		summary.LowStockCount, err = s.reportRepo.CountLowStock(gctx, defaultLowStockThreshold)
		return err
	})
	g.Go(func() (err error) {
		summary.SupplierBalanceDue, err = s.reportRepo.SupplierBalanceDue(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard summary: %w", err)
	}
	return summary, nil
}

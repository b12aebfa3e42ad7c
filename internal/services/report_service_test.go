package services

import (
	"context"
	"path/filepath"
	"testing"

	"ims_backend/internal/database"
	"ims_backend/internal/repositories"
)

func newReportService(t *testing.T) ReportService {
	t.Helper()
	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "reports.db"), 0)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.ApplyMigrations(db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewReportService(repositories.NewReportRepository(db), repositories.NewDayRepository(db), fixedClock("2024-03-01"))
}

func TestReportsOnEmptyStore(t *testing.T) {
	svc := newReportService(t)
	ctx := context.Background()

	report, err := svc.DailyReport(ctx, nil)
	if err != nil {
		t.Fatalf("daily report: %v", err)
	}
	if report.StartDate != "2024-03-01" || report.DayReport != nil || !report.SalesSummary.TotalSales.IsZero() {
		t.Errorf("unexpected daily report: %+v", report)
	}

	summary, err := svc.DashboardSummary(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if summary.DayOpen || summary.NumberOfSalesToday != 0 {
		t.Errorf("unexpected dashboard: %+v", summary)
	}
}

func TestReportsStopOnCancelledContext(t *testing.T) {
	svc := newReportService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		run  func() error
	}{
		{"daily", func() error { _, err := svc.DailyReport(ctx, nil); return err }},
		{"period", func() error {
			start, end := "2024-03-01", "2024-03-02"
			_, err := svc.PeriodReport(ctx, &start, &end)
			return err
		}},
		{"credits", func() error { _, err := svc.CreditsReport(ctx, nil); return err }},
		{"inventory", func() error { _, err := svc.InventoryReport(ctx, nil); return err }},
		{"suppliers", func() error { _, err := svc.SuppliersReport(ctx); return err }},
		{"top products", func() error { _, err := svc.TopProducts(ctx, nil, nil, nil); return err }},
		{"dashboard", func() error { _, err := svc.DashboardSummary(ctx); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); err == nil {
				t.Fatal("expected an error for a cancelled context")
			}
		})
	}
}

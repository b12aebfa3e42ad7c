package services

import (
	"testing"

	"ims_backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestExportReport(t *testing.T) {
	opener := "Jane"
	report := &models.Report{
		StartDate: "2024-03-01",
		EndDate:   "2024-03-01",
		SalesSummary: models.SalesSummary{
			TotalSales:    decimal.NewFromInt(1500),
			TotalCash:     decimal.NewFromInt(1000),
			TotalCredits:  decimal.NewFromInt(500),
			NumberOfSales: 3,
		},
		SalesByEmployee: []models.EmployeeSales{
			{EmployeeID: 1, EmployeeName: "Jane", NumberOfSales: 3, TotalSales: decimal.NewFromInt(1500)},
		},
		SalesByPaymentMethod: []models.PaymentMethodSales{
			{PaymentMethod: "mpesa", NumberOfSales: 2, TotalSales: decimal.NewFromInt(1000)},
		},
		DayReport: &models.DayReport{Date: "2024-03-01", IsOpen: true, OpenedBy: &opener},
	}

	buf, err := ExportReport(report)
	if err != nil {
		t.Fatalf("ExportReport: %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	wantSheets := []string{"Summary", "By Employee", "By Category", "By Payment Method"}
	sheets := f.GetSheetList()
	if len(sheets) != len(wantSheets) {
		t.Fatalf("sheets = %v, want %v", sheets, wantSheets)
	}
	for i, name := range wantSheets {
		if sheets[i] != name {
			t.Fatalf("sheet %d = %q, want %q", i, sheets[i], name)
		}
	}

	summary, err := f.GetRows("Summary")
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if summary[1][0] != "Start date" || summary[1][1] != "2024-03-01" {
		t.Fatalf("unexpected summary row: %v", summary[1])
	}
	last := summary[len(summary)-1]
	if last[0] != "Closed by" {
		t.Fatalf("summary should end with the day report, got %v", last)
	}

	employees, err := f.GetRows("By Employee")
	if err != nil {
		t.Fatalf("read employees: %v", err)
	}
	if len(employees) != 2 || employees[1][0] != "Jane" || employees[1][1] != "3" {
		t.Fatalf("unexpected employee rows: %v", employees)
	}

	categories, err := f.GetRows("By Category")
	if err != nil {
		t.Fatalf("read categories: %v", err)
	}
	if len(categories) != 1 || categories[0][0] != "Category" {
		t.Fatalf("empty breakdown should only hold the header, got %v", categories)
	}
}

func TestExportFilename(t *testing.T) {
	daily := &models.Report{StartDate: "2024-03-01", EndDate: "2024-03-01"}
	if got := ExportFilename(daily); got != "daily-report-2024-03-01.xlsx" {
		t.Fatalf("daily filename = %q", got)
	}
	period := &models.Report{StartDate: "2024-03-01", EndDate: "2024-03-31"}
	if got := ExportFilename(period); got != "period-report-2024-03-01-to-2024-03-31.xlsx" {
		t.Fatalf("period filename = %q", got)
	}
}

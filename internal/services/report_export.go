package services

import (
	"bytes"
	"fmt"

	"ims_backend/internal/models"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the media type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const summarySheet = "Summary"

// ExportReport renders a report as an XLSX workbook: a summary sheet plus one sheet per breakdown.
func ExportReport(report *models.Report) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	summary := [][]interface{}{
		{"Report", "Value"},
		{"Start date", report.StartDate},
		{"End date", report.EndDate},
		{"Total sales", report.SalesSummary.TotalSales.InexactFloat64()},
		{"Total cash", report.SalesSummary.TotalCash.InexactFloat64()},
		{"Total credits", report.SalesSummary.TotalCredits.InexactFloat64()},
		{"Number of sales", report.SalesSummary.NumberOfSales},
		{"Open credits", report.CreditSummary.OpenCredits.InexactFloat64()},
		{"Cleared credits", report.CreditSummary.ClearedCredits.InexactFloat64()},
		{"Number of open credits", report.CreditSummary.NumberOfOpenCredits},
		{"Number of cleared credits", report.CreditSummary.NumberOfClearedCredits},
	}
	if day := report.DayReport; day != nil {
		status := "closed"
		if day.IsOpen {
			status = "open"
		}
		summary = append(summary,
			[]interface{}{"Day status", status},
			[]interface{}{"Opened by", valueOrEmpty(day.OpenedBy)},
			[]interface{}{"Closed by", valueOrEmpty(day.ClosedBy)},
		)
	}
	if err := writeSheet(f, summarySheet, summary, header); err != nil {
		return nil, err
	}

	employees := [][]interface{}{{"Employee", "Number of sales", "Total sales"}}
	for _, e := range report.SalesByEmployee {
		employees = append(employees, []interface{}{e.EmployeeName, e.NumberOfSales, e.TotalSales.InexactFloat64()})
	}
	categories := [][]interface{}{{"Category", "Quantity", "Total sales"}}
	for _, c := range report.SalesByCategory {
		categories = append(categories, []interface{}{c.CategoryName, c.Quantity, c.TotalSales.InexactFloat64()})
	}
	methods := [][]interface{}{{"Payment method", "Number of sales", "Total sales"}}
	for _, m := range report.SalesByPaymentMethod {
		methods = append(methods, []interface{}{m.PaymentMethod, m.NumberOfSales, m.TotalSales.InexactFloat64()})
	}

	for _, sheet := range []struct {
		name string
		rows [][]interface{}
	}{
		{"By Employee", employees},
		{"By Category", categories},
		{"By Payment Method", methods},
	} {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("failed to add sheet %s: %w", sheet.name, err)
		}
		if err := writeSheet(f, sheet.name, sheet.rows, header); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

// ExportFilename names the workbook after the report's date range.
func ExportFilename(report *models.Report) string {
	if report.StartDate == report.EndDate {
		return fmt.Sprintf("daily-report-%s.xlsx", report.StartDate)
	}
	return fmt.Sprintf("period-report-%s-to-%s.xlsx", report.StartDate, report.EndDate)
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", sheet, err)
	}
	return f.SetColWidth(sheet, "A", "C", 24)
}

func valueOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

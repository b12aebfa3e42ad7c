package handlers

import (
	"fmt"
	"net/http"

	"ims_backend/internal/models"
	"ims_backend/internal/services"
	"ims_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler holds the report service.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

func (h *ReportHandler) dailyReport(c *gin.Context) (*models.Report, bool) {
	report, err := h.reportService.DailyReport(c.Request.Context(), stringQuery(c, "report_date"))
	if err != nil {
		respondServiceError(c, err, "DailyReport: Error from reportService.DailyReport")
		return nil, false
	}
	return report, true
}

func (h *ReportHandler) periodReport(c *gin.Context) (*models.Report, bool) {
	report, err := h.reportService.PeriodReport(c.Request.Context(), stringQuery(c, "start_date"), stringQuery(c, "end_date"))
	if err != nil {
		respondServiceError(c, err, "PeriodReport: Error from reportService.PeriodReport")
		return nil, false
	}
	return report, true
}

// DailyReport handles GET /reports/daily?report_date=YYYY-MM-DD (defaults to today).
func (h *ReportHandler) DailyReport(c *gin.Context) {
	if report, ok := h.dailyReport(c); ok {
		c.JSON(http.StatusOK, report)
	}
}

func (h *ReportHandler) PeriodReport(c *gin.Context) {
	if report, ok := h.periodReport(c); ok {
		c.JSON(http.StatusOK, report)
	}
}

func (h *ReportHandler) ExportDailyReport(c *gin.Context) {
	if report, ok := h.dailyReport(c); ok {
		h.sendWorkbook(c, report)
	}
}

func (h *ReportHandler) ExportPeriodReport(c *gin.Context) {
	if report, ok := h.periodReport(c); ok {
		h.sendWorkbook(c, report)
	}
}

func (h *ReportHandler) sendWorkbook(c *gin.Context, report *models.Report) {
	buf, err := services.ExportReport(report)
	if err != nil {
		utils.LogError(err, "ExportReport: Failed to render workbook")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to export report.", "Internal error"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ExportFilename(report)))
	c.Data(http.StatusOK, services.XLSXContentType, buf.Bytes())
}

// CreditsReport handles GET /reports/credits?status=open|cleared.
func (h *ReportHandler) CreditsReport(c *gin.Context) {
	credits, err := h.reportService.CreditsReport(c.Request.Context(), stringQuery(c, "status"))
	if err != nil {
		respondServiceError(c, err, "CreditsReport: Error from reportService.CreditsReport")
		return
	}
	if credits == nil {
		credits = []models.Credit{}
	}
	c.JSON(http.StatusOK, credits)
}

// InventoryReport handles GET /reports/inventory?threshold=N.
func (h *ReportHandler) InventoryReport(c *gin.Context) {
	threshold, ok := intQuery(c, "threshold")
	if !ok {
		return
	}
	items, err := h.reportService.InventoryReport(c.Request.Context(), threshold)
	if err != nil {
		respondServiceError(c, err, "InventoryReport: Error from reportService.InventoryReport")
		return
	}
	if items == nil {
		items = []models.InventoryReportItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *ReportHandler) SuppliersReport(c *gin.Context) {
	items, err := h.reportService.SuppliersReport(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "SuppliersReport: Error from reportService.SuppliersReport")
		return
	}
	if items == nil {
		items = []models.SupplierBalanceItem{}
	}
	c.JSON(http.StatusOK, items)
}

// TopProducts handles GET /reports/top-products?start_date&end_date&limit.
func (h *ReportHandler) TopProducts(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}
	items, err := h.reportService.TopProducts(c.Request.Context(), stringQuery(c, "start_date"), stringQuery(c, "end_date"), limit)
	if err != nil {
		respondServiceError(c, err, "TopProducts: Error from reportService.TopProducts")
		return
	}
	if items == nil {
		items = []models.TopProductItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *ReportHandler) DashboardSummary(c *gin.Context) {
	summary, err := h.reportService.DashboardSummary(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "DashboardSummary: Error from reportService.DashboardSummary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

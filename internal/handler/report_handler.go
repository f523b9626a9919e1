package handler

import (
	"net/http"

	"printshop/internal/middleware"
	"printshop/internal/model"
	"printshop/internal/service"
	"printshop/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	{
		reports.GET("/dashboard", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.Dashboard)
		reports.GET("/inventory", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.Inventory)
		reports.GET("/finance", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.Finance)
	}
}

// Dashboard returns the landing-page aggregate
// @Summary      Dashboard report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.DashboardReport}
// @Router       /api/reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	report, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build report: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Inventory values current stock at unit cost
// @Summary      Inventory report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.InventoryReport}
// @Router       /api/reports/inventory [get]
func (h *ReportHandler) Inventory(c *gin.Context) {
	report, err := h.reportService.Inventory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build report: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

// Finance aggregates revenue and expenses over a period
// @Summary      Finance report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        from  query  string  false  "Period start (YYYY-MM-DD, default month start)"
// @Param        to    query  string  false  "Period end (YYYY-MM-DD, default now)"
// @Success      200  {object}  response.Response{data=service.FinanceSummary}
// @Failure      400  {object}  response.Response
// @Router       /api/reports/finance [get]
func (h *ReportHandler) Finance(c *gin.Context) {
	from, to, err := parsePeriod(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	report, err := h.reportService.Finance(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build report: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, report))
}

package handler

import (
	"net/http"

	"printshop/internal/middleware"
	"printshop/internal/model"
	"printshop/internal/repository"
	"printshop/pkg/pagination"
	"printshop/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the audit trail read-only; writes happen only as
// side effects inside the services.
type AuditHandler struct {
	auditRepo repository.AuditRepository
}

func NewAuditHandler(auditRepo repository.AuditRepository) *AuditHandler {
	return &AuditHandler{auditRepo: auditRepo}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/audit-logs", middleware.RequireRole(model.RoleAdmin), h.ListAuditLogs)
}

// ListAuditLogs returns a paginated audit trail
// @Summary      List audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Param        action  query  string  false  "Filter by action"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)
	logs, total, err := h.auditRepo.List(c.Request.Context(), params.Page, params.Limit, c.Query("action"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve audit logs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":        logs,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
		"total_pages": pagination.TotalPages(total, params.Limit),
	}))
}

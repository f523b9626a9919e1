package handler

import (
	"errors"
	"net/http"

	"printshop/internal/middleware"
	"printshop/internal/model"
	"printshop/internal/service"
	"printshop/pkg/pagination"
	"printshop/pkg/response"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	billingService service.BillingService
}

func NewBillingHandler(billingService service.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

func (h *BillingHandler) RegisterRoutes(router *gin.RouterGroup) {
	billing := router.Group("/api/billing/invoices")
	{
		billing.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListInvoices)
		billing.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetInvoice)
		billing.POST("/:id/paid", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.MarkPaid)
		billing.POST("/:id/void", middleware.RequireRole(model.RoleAdmin), h.VoidInvoice)
		billing.POST("/:id/resend", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ResendEmail)
	}
}

// ListInvoices returns a paginated invoice listing
// @Summary      List invoices
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Param        status  query  string  false  "Filter by status (Issued, Paid, Void)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/billing/invoices [get]
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	params := pagination.Parse(c)
	invoices, total, err := h.billingService.ListInvoices(c.Request.Context(), params.Page, params.Limit, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve invoices: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"invoices":    invoices,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
		"total_pages": pagination.TotalPages(total, params.Limit),
	}))
}

// GetInvoice returns one invoice
// @Summary      Get invoice
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice uuid"
// @Success      200  {object}  response.Response{data=model.Invoice}
// @Failure      404  {object}  response.Response
// @Router       /api/billing/invoices/{id} [get]
func (h *BillingHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.billingService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// MarkPaid marks an invoice settled
// @Summary      Mark invoice paid
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice uuid"
// @Success      200  {object}  response.Response{data=model.Invoice}
// @Failure      400  {object}  response.Response
// @Router       /api/billing/invoices/{id}/paid [post]
func (h *BillingHandler) MarkPaid(c *gin.Context) {
	invoice, err := h.billingService.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// VoidInvoice voids an invoice
// @Summary      Void invoice
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice uuid"
// @Success      200  {object}  response.Response{data=model.Invoice}
// @Failure      400  {object}  response.Response
// @Router       /api/billing/invoices/{id}/void [post]
func (h *BillingHandler) VoidInvoice(c *gin.Context) {
	invoice, err := h.billingService.VoidInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// ResendEmail retries invoice delivery to the customer
// @Summary      Resend invoice email
// @Tags         billing
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice uuid"
// @Success      200  {object}  response.Response{data=model.Invoice}
// @Failure      400  {object}  response.Response
// @Router       /api/billing/invoices/{id}/resend [post]
func (h *BillingHandler) ResendEmail(c *gin.Context) {
	invoice, err := h.billingService.ResendEmail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

func (h *BillingHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvoiceNotFound) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
}

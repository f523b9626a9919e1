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

type ProcurementHandler struct {
	procurementService service.ProcurementService
}

func NewProcurementHandler(procurementService service.ProcurementService) *ProcurementHandler {
	return &ProcurementHandler{procurementService: procurementService}
}

func (h *ProcurementHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/material-orders")
	{
		orders.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListMaterialOrders)
		orders.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateMaterialOrder)
		orders.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetMaterialOrder)
		orders.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UpdateMaterialOrder)
		orders.POST("/:id/cancel", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CancelMaterialOrder)
		orders.POST("/:id/delivered", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.MarkDelivered)
	}
}

// ListMaterialOrders returns a paginated purchase-order listing
// @Summary      List material orders
// @Tags         procurement
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/material-orders [get]
func (h *ProcurementHandler) ListMaterialOrders(c *gin.Context) {
	params := pagination.Parse(c)
	orders, total, err := h.procurementService.ListMaterialOrders(c.Request.Context(), params.Page, params.Limit, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve material orders: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"material_orders": orders,
		"total":           total,
		"page":            params.Page,
		"limit":           params.Limit,
		"total_pages":     pagination.TotalPages(total, params.Limit),
	}))
}

// CreateMaterialOrder places a purchase order with a supplier
// @Summary      Create material order
// @Description  Places a purchase order and emails it to the supplier.
// @Description  Email failure is reported as a warning.
// @Tags         procurement
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateMaterialOrderRequest  true  "Create Material Order Payload"
// @Success      201      {object}  response.Response{data=model.MaterialOrder}
// @Failure      400      {object}  response.Response
// @Router       /api/material-orders [post]
func (h *ProcurementHandler) CreateMaterialOrder(c *gin.Context) {
	var req service.CreateMaterialOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, warnings, err := h.procurementService.CreateMaterialOrder(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.SuccessWithWarnings(http.StatusCreated, order, warnings))
}

// GetMaterialOrder returns one purchase order
// @Summary      Get material order
// @Tags         procurement
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Material order uuid"
// @Success      200  {object}  response.Response{data=model.MaterialOrder}
// @Failure      404  {object}  response.Response
// @Router       /api/material-orders/{id} [get]
func (h *ProcurementHandler) GetMaterialOrder(c *gin.Context) {
	order, err := h.procurementService.GetMaterialOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateMaterialOrder edits an undelivered purchase order
// @Summary      Update material order
// @Tags         procurement
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                              true  "Material order uuid"
// @Param        payload  body      service.UpdateMaterialOrderRequest  true  "Update Payload"
// @Success      200      {object}  response.Response{data=model.MaterialOrder}
// @Failure      400      {object}  response.Response
// @Router       /api/material-orders/{id} [put]
func (h *ProcurementHandler) UpdateMaterialOrder(c *gin.Context) {
	var req service.UpdateMaterialOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.procurementService.UpdateMaterialOrder(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CancelMaterialOrder cancels an undelivered purchase order
// @Summary      Cancel material order
// @Tags         procurement
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Material order uuid"
// @Success      200  {object}  response.Response{data=model.MaterialOrder}
// @Failure      400  {object}  response.Response
// @Router       /api/material-orders/{id}/cancel [post]
func (h *ProcurementHandler) CancelMaterialOrder(c *gin.Context) {
	order, err := h.procurementService.CancelMaterialOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// MarkDelivered receives a purchase into stock
// @Summary      Mark material order delivered
// @Description  Credits the usable quantity (ordered minus damaged) to
// @Description  stock and posts the expense and ledger entries, all in
// @Description  one transaction. Repeated calls are rejected.
// @Tags         procurement
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string  true   "Material order uuid"
// @Param        payload  body  object  false  "{\"damaged_items_amount\": 0}"
// @Success      200  {object}  response.Response{data=service.DeliveryResult}
// @Failure      400  {object}  response.Response
// @Router       /api/material-orders/{id}/delivered [post]
func (h *ProcurementHandler) MarkDelivered(c *gin.Context) {
	var body struct {
		Damaged int `json:"damaged_items_amount"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.procurementService.MarkDelivered(c.Request.Context(), c.GetString("userID"), c.Param("id"), body.Damaged)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithWarnings(http.StatusOK, result, result.Warnings))
}

func (h *ProcurementHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMaterialOrderNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrAlreadyDelivered),
		errors.Is(err, service.ErrDamagedExceedsOrdered):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

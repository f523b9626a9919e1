package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"printshop/internal/middleware"
	"printshop/internal/model"
	"printshop/internal/repository"
	"printshop/internal/service"
	"printshop/pkg/drive"
	"printshop/pkg/pagination"
	"printshop/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxUploadSize caps receipt and image uploads at 5MB.
const maxUploadSize = 5 << 20

type OrderHandler struct {
	orderService service.OrderService
	drive        *drive.Client
}

func NewOrderHandler(orderService service.OrderService, driveClient *drive.Client) *OrderHandler {
	return &OrderHandler{orderService: orderService, drive: driveClient}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListOrders)
		orders.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.CreateOrder)
		orders.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetOrder)
		orders.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteOrder)
		orders.PATCH("/:id/status", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.UpdateStatus)
		orders.POST("/:id/cancel", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CancelOrder)
		orders.POST("/:id/assign", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.AssignEmployee)
		orders.POST("/:id/unassign", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UnassignEmployee)
		orders.POST("/:id/receipt", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.UploadReceipt)
		orders.POST("/:id/receipt/approve", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ApproveReceipt)
		orders.POST("/:id/receipt/reject", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.RejectReceipt)
		orders.POST("/quote", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.Quote)
	}
}

// ListOrders returns a paginated, filterable order listing
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        limit        query  int     false  "Items per page (default 20)"
// @Param        status       query  string  false  "Filter by order status"
// @Param        customer_id  query  string  false  "Filter by customer uuid"
// @Param        employee_id  query  string  false  "Filter by assigned employee uuid"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)
	filter := repository.OrderListFilter{
		Status: c.Query("status"),
		Page:   params.Page,
		Limit:  params.Limit,
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid customer_id"))
			return
		}
		filter.CustomerID = &id
	}
	if raw := c.Query("employee_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid employee_id"))
			return
		}
		filter.EmployeeID = &id
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve orders: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders":      orders,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
		"total_pages": pagination.TotalPages(total, params.Limit),
	}))
}

// CreateOrder creates a print order with its line items
// @Summary      Create order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// GetOrder returns one order with items, usage and tracking history
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order uuid or ORD- business id"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// DeleteOrder hard-deletes an order still in an early state
// @Summary      Delete order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order uuid or ORD- business id"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.orderService.DeleteOrder(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// UpdateStatus moves an order through its lifecycle
// @Summary      Update order status
// @Description  Applies one forward status transition. Moving out of New
// @Description  records material usage; materials with insufficient stock
// @Description  are skipped and reported in the response.
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Order uuid or ORD- business id"
// @Param        payload  body      service.UpdateStatusRequest  true  "Target status"
// @Success      200      {object}  response.Response{data=service.StatusChangeResult}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.orderService.UpdateStatus(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithWarnings(http.StatusOK, result, result.Warnings))
}

// CancelOrder cancels an order and restores consumed materials
// @Summary      Cancel order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Order uuid or ORD- business id"
// @Success      200  {object}  response.Response{data=service.StatusChangeResult}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var body struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.orderService.UpdateStatus(c.Request.Context(), c.GetString("userID"), c.Param("id"), service.UpdateStatusRequest{
		Status: model.OrderStatusCancelled,
		Note:   body.Note,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithWarnings(http.StatusOK, result, result.Warnings))
}

// AssignEmployee assigns an employee and updates workload counters
// @Summary      Assign employee to order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string  true  "Order uuid or ORD- business id"
// @Param        payload  body  object  true  "{\"employee_id\": \"EMP-001\"}"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id}/assign [post]
func (h *OrderHandler) AssignEmployee(c *gin.Context) {
	var body struct {
		EmployeeID string `json:"employee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ref, err := model.ParseEmployeeRef(body.EmployeeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	order, err := h.orderService.AssignEmployee(c.Request.Context(), c.GetString("userID"), c.Param("id"), ref)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UnassignEmployee removes the order's assignment
// @Summary      Unassign employee from order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order uuid or ORD- business id"
// @Success      200  {object}  response.Response{data=model.Order}
// @Router       /api/orders/{id}/unassign [post]
func (h *OrderHandler) UnassignEmployee(c *gin.Context) {
	order, err := h.orderService.UnassignEmployee(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UploadReceipt stores a payment receipt file for verification
// @Summary      Upload payment receipt
// @Tags         orders
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id       path      string  true  "Order uuid or ORD- business id"
// @Param        receipt  formData  file    true  "Receipt file (jpeg, png or pdf, max 5MB)"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id}/receipt [post]
func (h *OrderHandler) UploadReceipt(c *gin.Context) {
	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Receipt file is missing"))
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Receipt exceeds the 5MB limit"))
		return
	}
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".jpg", ".jpeg", ".png", ".pdf":
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Receipt must be a jpeg, png or pdf file"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to read upload: "+err.Error()))
		return
	}
	defer file.Close()

	result, err := h.drive.Upload("receipts", fileHeader.Filename, file)
	if err != nil {
		c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, "Failed to store receipt: "+err.Error()))
		return
	}

	order, err := h.orderService.AttachReceipt(c.Request.Context(), c.Param("id"), result.DirectURL, result.FileID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ApproveReceipt verifies payment and confirms the order
// @Summary      Approve payment receipt
// @Description  Marks the order paid and Confirmed, then generates and
// @Description  emails the invoice. Email or upload failures come back
// @Description  as warnings, not errors.
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order uuid or ORD- business id"
// @Success      200  {object}  response.Response{data=service.StatusChangeResult}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id}/receipt/approve [post]
func (h *OrderHandler) ApproveReceipt(c *gin.Context) {
	result, err := h.orderService.ApproveReceipt(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithWarnings(http.StatusOK, result, result.Warnings))
}

// RejectReceipt rejects an uploaded receipt and notifies the customer
// @Summary      Reject payment receipt
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Order uuid or ORD- business id"
// @Success      200  {object}  response.Response{data=service.StatusChangeResult}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/{id}/receipt/reject [post]
func (h *OrderHandler) RejectReceipt(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.orderService.RejectReceipt(c.Request.Context(), c.GetString("userID"), c.Param("id"), body.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithWarnings(http.StatusOK, result, result.Warnings))
}

// Quote prices a prospective line item without creating anything
// @Summary      Quote a line item
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Success      200  {object}  response.Response{data=service.CostBreakdown}
// @Failure      400  {object}  response.Response
// @Router       /api/orders/quote [post]
func (h *OrderHandler) Quote(c *gin.Context) {
	var body struct {
		ProductType string `json:"product_type" binding:"required"`
		Size        string `json:"size"`
		ColorMode   string `json:"color_mode"`
		Quantity    int    `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	breakdown := service.ComputePrice(service.PriceSpec{
		ProductType: body.ProductType,
		Size:        body.Size,
		ColorMode:   body.ColorMode,
		Quantity:    body.Quantity,
	}, service.DefaultTaxRate())
	c.JSON(http.StatusOK, response.Success(http.StatusOK, breakdown))
}

// writeError maps service errors to HTTP statuses.
func (h *OrderHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrCancelNotAllowed),
		errors.Is(err, service.ErrDeleteNotAllowed),
		errors.Is(err, service.ErrAssignNotAllowed),
		errors.Is(err, service.ErrNoReceipt):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

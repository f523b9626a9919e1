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

type DeliveryHandler struct {
	deliveryService service.DeliveryService
}

func NewDeliveryHandler(deliveryService service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService}
}

func (h *DeliveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	deliveries := router.Group("/api/deliveries")
	{
		deliveries.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListDeliveries)
		deliveries.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateDelivery)
		deliveries.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetDelivery)
		deliveries.POST("/:id/start", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.StartDelivery)
		deliveries.POST("/:id/complete", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.CompleteDelivery)
		deliveries.POST("/:id/fail", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.FailDelivery)
	}
}

// ListDeliveries returns a paginated delivery listing
// @Summary      List deliveries
// @Tags         deliveries
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/deliveries [get]
func (h *DeliveryHandler) ListDeliveries(c *gin.Context) {
	params := pagination.Parse(c)
	deliveries, total, err := h.deliveryService.ListDeliveries(c.Request.Context(), params.Page, params.Limit, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve deliveries: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"deliveries":  deliveries,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
		"total_pages": pagination.TotalPages(total, params.Limit),
	}))
}

// CreateDelivery schedules a shipment for a ready order
// @Summary      Create delivery
// @Tags         deliveries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateDeliveryRequest  true  "Create Delivery Payload"
// @Success      201      {object}  response.Response{data=model.Delivery}
// @Failure      400      {object}  response.Response
// @Router       /api/deliveries [post]
func (h *DeliveryHandler) CreateDelivery(c *gin.Context) {
	var req service.CreateDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	delivery, err := h.deliveryService.CreateDelivery(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, delivery))
}

// GetDelivery returns one delivery
// @Summary      Get delivery
// @Tags         deliveries
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Delivery uuid"
// @Success      200  {object}  response.Response{data=model.Delivery}
// @Failure      404  {object}  response.Response
// @Router       /api/deliveries/{id} [get]
func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	delivery, err := h.deliveryService.GetDelivery(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, delivery))
}

// StartDelivery departs a scheduled delivery
// @Summary      Start delivery
// @Description  Moves the delivery out the door and the order to
// @Description  Out_for_Delivery.
// @Tags         deliveries
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Delivery uuid"
// @Success      200  {object}  response.Response{data=model.Delivery}
// @Failure      400  {object}  response.Response
// @Router       /api/deliveries/{id}/start [post]
func (h *DeliveryHandler) StartDelivery(c *gin.Context) {
	delivery, err := h.deliveryService.StartDelivery(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, delivery))
}

// CompleteDelivery closes a delivery and marks the order Delivered
// @Summary      Complete delivery
// @Tags         deliveries
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Delivery uuid"
// @Success      200  {object}  response.Response{data=model.Delivery}
// @Failure      400  {object}  response.Response
// @Router       /api/deliveries/{id}/complete [post]
func (h *DeliveryHandler) CompleteDelivery(c *gin.Context) {
	delivery, err := h.deliveryService.CompleteDelivery(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, delivery))
}

// FailDelivery marks an attempt failed so a new one can be scheduled
// @Summary      Fail delivery
// @Tags         deliveries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string  true   "Delivery uuid"
// @Param        payload  body  object  false  "{\"note\": \"nobody home\"}"
// @Success      200  {object}  response.Response{data=model.Delivery}
// @Failure      400  {object}  response.Response
// @Router       /api/deliveries/{id}/fail [post]
func (h *DeliveryHandler) FailDelivery(c *gin.Context) {
	var body struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&body)

	delivery, err := h.deliveryService.FailDelivery(c.Request.Context(), c.GetString("userID"), c.Param("id"), body.Note)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, delivery))
}

func (h *DeliveryHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDeliveryNotFound), errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}

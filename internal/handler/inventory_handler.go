package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"printshop/internal/middleware"
	"printshop/internal/model"
	"printshop/internal/service"
	"printshop/pkg/pagination"
	"printshop/pkg/response"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
}

func NewInventoryHandler(inventoryService service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	materials := router.Group("/api/raw-materials")
	{
		materials.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListMaterials)
		materials.GET("/low-stock", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListLowStock)
		materials.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateMaterial)
		materials.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetMaterial)
		materials.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UpdateMaterial)
		materials.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteMaterial)
		materials.POST("/:id/adjust-stock", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.AdjustStock)
		materials.POST("/:id/image", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UploadImage)
		materials.DELETE("/:id/image", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.RemoveImage)
	}
}

// ListMaterials returns a paginated raw-material listing
// @Summary      List raw materials
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        limit     query  int     false  "Items per page (default 20)"
// @Param        search    query  string  false  "Search by name"
// @Param        category  query  string  false  "Filter by category"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/raw-materials [get]
func (h *InventoryHandler) ListMaterials(c *gin.Context) {
	params := pagination.Parse(c)
	materials, total, err := h.inventoryService.ListMaterials(c.Request.Context(), params.Page, params.Limit, c.Query("search"), c.Query("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve materials: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"materials":   materials,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
		"total_pages": pagination.TotalPages(total, params.Limit),
	}))
}

// ListLowStock returns materials at or below their reorder threshold
// @Summary      List low-stock materials
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.RawMaterial}
// @Router       /api/raw-materials/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	materials, err := h.inventoryService.ListLowStock(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve low stock: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, materials))
}

// CreateMaterial registers a new raw material
// @Summary      Create raw material
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateMaterialRequest  true  "Create Material Payload"
// @Success      201      {object}  response.Response{data=model.RawMaterial}
// @Failure      400      {object}  response.Response
// @Router       /api/raw-materials [post]
func (h *InventoryHandler) CreateMaterial(c *gin.Context) {
	var req service.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	material, err := h.inventoryService.CreateMaterial(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, material))
}

// GetMaterial returns one raw material
// @Summary      Get raw material
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Material uuid or RM- business id"
// @Success      200  {object}  response.Response{data=model.RawMaterial}
// @Failure      404  {object}  response.Response
// @Router       /api/raw-materials/{id} [get]
func (h *InventoryHandler) GetMaterial(c *gin.Context) {
	material, err := h.inventoryService.GetMaterial(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, material))
}

// UpdateMaterial updates material metadata (not stock)
// @Summary      Update raw material
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Material uuid or RM- business id"
// @Param        payload  body      service.UpdateMaterialRequest  true  "Update Material Payload"
// @Success      200      {object}  response.Response{data=model.RawMaterial}
// @Failure      400      {object}  response.Response
// @Router       /api/raw-materials/{id} [put]
func (h *InventoryHandler) UpdateMaterial(c *gin.Context) {
	var req service.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	material, err := h.inventoryService.UpdateMaterial(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, material))
}

// DeleteMaterial soft-deletes a material
// @Summary      Delete raw material
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Material uuid or RM- business id"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/raw-materials/{id} [delete]
func (h *InventoryHandler) DeleteMaterial(c *gin.Context) {
	if err := h.inventoryService.DeleteMaterial(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// AdjustStock applies a signed manual stock correction
// @Summary      Adjust stock
// @Description  Applies a signed delta to current stock. Adjustments that
// @Description  would drive stock negative are rejected.
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Material uuid or RM- business id"
// @Param        payload  body      service.StockAdjustment  true  "Adjustment"
// @Success      200      {object}  response.Response{data=model.RawMaterial}
// @Failure      400      {object}  response.Response
// @Router       /api/raw-materials/{id}/adjust-stock [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var adj service.StockAdjustment
	if err := c.ShouldBindJSON(&adj); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	material, err := h.inventoryService.AdjustStock(c.Request.Context(), c.GetString("userID"), c.Param("id"), adj)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, material))
}

// UploadImage attaches a product photo to a material
// @Summary      Upload material image
// @Tags         inventory
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string  true  "Material uuid or RM- business id"
// @Param        image  formData  file    true  "Image file (jpeg or png, max 5MB)"
// @Success      200    {object}  response.Response{data=model.RawMaterial}
// @Failure      400    {object}  response.Response
// @Router       /api/raw-materials/{id}/image [post]
func (h *InventoryHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Image file is missing"))
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Image exceeds the 5MB limit"))
		return
	}
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".jpg", ".jpeg", ".png":
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Image must be a jpeg or png file"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to read upload: "+err.Error()))
		return
	}
	defer file.Close()

	material, err := h.inventoryService.AttachImage(c.Request.Context(), c.Param("id"), fileHeader.Filename, file)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, material))
}

// RemoveImage deletes a material's photo
// @Summary      Remove material image
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Material uuid or RM- business id"
// @Success      200  {object}  response.Response{data=model.RawMaterial}
// @Router       /api/raw-materials/{id}/image [delete]
func (h *InventoryHandler) RemoveImage(c *gin.Context) {
	material, err := h.inventoryService.RemoveImage(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, material))
}

func (h *InventoryHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMaterialNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrNegativeStock):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

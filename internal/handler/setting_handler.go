package handler

import (
	"errors"
	"net/http"

	"printshop/internal/middleware"
	"printshop/internal/model"
	"printshop/internal/service"
	"printshop/pkg/response"

	"github.com/gin-gonic/gin"
)

type SettingHandler struct {
	settingService service.SettingService
}

func NewSettingHandler(settingService service.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

func (h *SettingHandler) RegisterRoutes(router *gin.RouterGroup) {
	settings := router.Group("/api/settings")
	{
		settings.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ListSettings)
		settings.GET("/:key", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.GetSetting)
		settings.PUT("/:key", middleware.RequireRole(model.RoleAdmin), h.SetSetting)
	}
}

// ListSettings returns every configuration key
// @Summary      List settings
// @Tags         settings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Setting}
// @Router       /api/settings [get]
func (h *SettingHandler) ListSettings(c *gin.Context) {
	settings, err := h.settingService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve settings: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}

// GetSetting returns one configuration key
// @Summary      Get setting
// @Tags         settings
// @Security     BearerAuth
// @Produce      json
// @Param        key  path      string  true  "Setting key"
// @Success      200  {object}  response.Response{data=model.Setting}
// @Failure      404  {object}  response.Response
// @Router       /api/settings/{key} [get]
func (h *SettingHandler) GetSetting(c *gin.Context) {
	setting, err := h.settingService.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, service.ErrSettingNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, setting))
}

// SetSetting creates or updates a configuration key
// @Summary      Set setting
// @Tags         settings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        key      path  string  true  "Setting key"
// @Param        payload  body  object  true  "{\"value\": \"0.10\"}"
// @Success      200  {object}  response.Response{data=model.Setting}
// @Failure      400  {object}  response.Response
// @Router       /api/settings/{key} [put]
func (h *SettingHandler) SetSetting(c *gin.Context) {
	var body struct {
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	setting, err := h.settingService.Set(c.Request.Context(), c.Param("key"), body.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, setting))
}

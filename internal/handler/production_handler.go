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

type ProductionHandler struct {
	productionService service.ProductionService
}

func NewProductionHandler(productionService service.ProductionService) *ProductionHandler {
	return &ProductionHandler{productionService: productionService}
}

func (h *ProductionHandler) RegisterRoutes(router *gin.RouterGroup) {
	production := router.Group("/api/production/jobs")
	{
		production.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.ListJobs)
		production.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateJob)
		production.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.GetJob)
		production.POST("/:id/start", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.StartJob)
		production.POST("/:id/complete", middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff), h.CompleteJob)
	}
}

// ListJobs returns a paginated production-job listing
// @Summary      List production jobs
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/production/jobs [get]
func (h *ProductionHandler) ListJobs(c *gin.Context) {
	params := pagination.Parse(c)
	jobs, total, err := h.productionService.ListJobs(c.Request.Context(), params.Page, params.Limit, c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve jobs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"jobs":        jobs,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
		"total_pages": pagination.TotalPages(total, params.Limit),
	}))
}

// CreateJob queues shop-floor work for an order
// @Summary      Create production job
// @Tags         production
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateJobRequest  true  "Create Job Payload"
// @Success      201      {object}  response.Response{data=model.ProductionJob}
// @Failure      400      {object}  response.Response
// @Router       /api/production/jobs [post]
func (h *ProductionHandler) CreateJob(c *gin.Context) {
	var req service.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	job, err := h.productionService.CreateJob(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, job))
}

// GetJob returns one production job
// @Summary      Get production job
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Job uuid"
// @Success      200  {object}  response.Response{data=model.ProductionJob}
// @Failure      404  {object}  response.Response
// @Router       /api/production/jobs/{id} [get]
func (h *ProductionHandler) GetJob(c *gin.Context) {
	job, err := h.productionService.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}

// StartJob begins queued work and moves the order into production
// @Summary      Start production job
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Job uuid"
// @Success      200  {object}  response.Response{data=model.ProductionJob}
// @Failure      400  {object}  response.Response
// @Router       /api/production/jobs/{id}/start [post]
func (h *ProductionHandler) StartJob(c *gin.Context) {
	job, err := h.productionService.StartJob(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}

// CompleteJob finishes work and hands the order to quality check
// @Summary      Complete production job
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Job uuid"
// @Success      200  {object}  response.Response{data=model.ProductionJob}
// @Failure      400  {object}  response.Response
// @Router       /api/production/jobs/{id}/complete [post]
func (h *ProductionHandler) CompleteJob(c *gin.Context) {
	job, err := h.productionService.CompleteJob(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}

func (h *ProductionHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrJobNotFound), errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}

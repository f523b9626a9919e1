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

type HRHandler struct {
	employeeService service.EmployeeService
}

func NewHRHandler(employeeService service.EmployeeService) *HRHandler {
	return &HRHandler{employeeService: employeeService}
}

func (h *HRHandler) RegisterRoutes(router *gin.RouterGroup) {
	hr := router.Group("/api/hr/employees")
	{
		hr.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ListEmployees)
		hr.POST("", middleware.RequireRole(model.RoleAdmin), h.CreateEmployee)
		hr.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.GetEmployee)
		hr.PUT("/:id", middleware.RequireRole(model.RoleAdmin), h.UpdateEmployee)
		hr.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteEmployee)
		hr.POST("/:id/workload", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.UpdateWorkload)
		hr.POST("/:id/workload/recount", middleware.RequireRole(model.RoleAdmin), h.RecountWorkload)
	}
}

// ListEmployees returns a paginated staff listing
// @Summary      List employees
// @Tags         hr
// @Security     BearerAuth
// @Produce      json
// @Param        page        query  int     false  "Page number (default 1)"
// @Param        limit       query  int     false  "Items per page (default 20)"
// @Param        department  query  string  false  "Filter by department"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/hr/employees [get]
func (h *HRHandler) ListEmployees(c *gin.Context) {
	params := pagination.Parse(c)
	employees, total, err := h.employeeService.ListEmployees(c.Request.Context(), params.Page, params.Limit, c.Query("department"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve employees: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"employees":   employees,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
		"total_pages": pagination.TotalPages(total, params.Limit),
	}))
}

// CreateEmployee registers a new staff member
// @Summary      Create employee
// @Description  Creates the employee record and sends a welcome email.
// @Description  Email failure is reported as a warning.
// @Tags         hr
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateEmployeeRequest  true  "Create Employee Payload"
// @Success      201      {object}  response.Response{data=model.Employee}
// @Failure      400      {object}  response.Response
// @Router       /api/hr/employees [post]
func (h *HRHandler) CreateEmployee(c *gin.Context) {
	var req service.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	employee, warnings, err := h.employeeService.CreateEmployee(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.SuccessWithWarnings(http.StatusCreated, employee, warnings))
}

// GetEmployee returns one employee
// @Summary      Get employee
// @Tags         hr
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "EMP- id, USR-<uuid>, or a bare uuid"
// @Success      200  {object}  response.Response{data=model.Employee}
// @Failure      404  {object}  response.Response
// @Router       /api/hr/employees/{id} [get]
func (h *HRHandler) GetEmployee(c *gin.Context) {
	ref, err := model.ParseEmployeeRef(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	employee, err := h.employeeService.GetEmployee(c.Request.Context(), ref)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

// UpdateEmployee edits an employee record
// @Summary      Update employee
// @Tags         hr
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "EMP- id, USR-<uuid>, or a bare uuid"
// @Param        payload  body      service.UpdateEmployeeRequest  true  "Update Payload"
// @Success      200      {object}  response.Response{data=model.Employee}
// @Failure      400      {object}  response.Response
// @Router       /api/hr/employees/{id} [put]
func (h *HRHandler) UpdateEmployee(c *gin.Context) {
	ref, err := model.ParseEmployeeRef(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	var req service.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	employee, err := h.employeeService.UpdateEmployee(c.Request.Context(), ref, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

// DeleteEmployee soft-deletes an employee without active orders
// @Summary      Delete employee
// @Tags         hr
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "EMP- id, USR-<uuid>, or a bare uuid"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/hr/employees/{id} [delete]
func (h *HRHandler) DeleteEmployee(c *gin.Context) {
	ref, err := model.ParseEmployeeRef(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	if err := h.employeeService.DeleteEmployee(c.Request.Context(), ref); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// UpdateWorkload applies one workload action to an employee
// @Summary      Update employee workload
// @Tags         hr
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "EMP- id, USR-<uuid>, or a bare uuid"
// @Param        payload  body      service.WorkloadRequest  true  "Workload action: assign, complete or unassign"
// @Success      200      {object}  response.Response{data=model.Employee}
// @Failure      400      {object}  response.Response
// @Router       /api/hr/employees/{id}/workload [post]
func (h *HRHandler) UpdateWorkload(c *gin.Context) {
	ref, err := model.ParseEmployeeRef(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	var req service.WorkloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	employee, err := h.employeeService.UpdateWorkload(c.Request.Context(), ref, req.Action)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

// RecountWorkload rebuilds workload counters from live order data
// @Summary      Recount employee workload
// @Tags         hr
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "EMP- id, USR-<uuid>, or a bare uuid"
// @Success      200  {object}  response.Response{data=model.Employee}
// @Failure      404  {object}  response.Response
// @Router       /api/hr/employees/{id}/workload/recount [post]
func (h *HRHandler) RecountWorkload(c *gin.Context) {
	ref, err := model.ParseEmployeeRef(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	employee, err := h.employeeService.RecountWorkload(c.Request.Context(), ref)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, employee))
}

func (h *HRHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrEmployeeNotFound) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
}

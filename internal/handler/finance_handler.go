package handler

import (
	"errors"
	"net/http"
	"time"

	"printshop/internal/middleware"
	"printshop/internal/model"
	"printshop/internal/service"
	"printshop/pkg/pagination"
	"printshop/pkg/response"

	"github.com/gin-gonic/gin"
)

type FinanceHandler struct {
	financeService service.FinanceService
}

func NewFinanceHandler(financeService service.FinanceService) *FinanceHandler {
	return &FinanceHandler{financeService: financeService}
}

func (h *FinanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	finance := router.Group("/api/finance")
	{
		finance.GET("/expenses", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ListExpenses)
		finance.POST("/expenses", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.CreateExpense)
		finance.GET("/expenses/:id", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.GetExpense)
		finance.PATCH("/expenses/:id/status", middleware.RequireRole(model.RoleAdmin), h.UpdateExpenseStatus)
		finance.GET("/ledger", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ListLedger)
		finance.POST("/salary-run", middleware.RequireRole(model.RoleAdmin), h.RunSalaries)
		finance.GET("/summary", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.Summary)
	}
}

// ListExpenses returns a paginated expense listing
// @Summary      List expenses
// @Tags         finance
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number (default 1)"
// @Param        limit     query  int     false  "Items per page (default 20)"
// @Param        category  query  string  false  "Filter by category"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/finance/expenses [get]
func (h *FinanceHandler) ListExpenses(c *gin.Context) {
	params := pagination.Parse(c)
	expenses, total, err := h.financeService.ListExpenses(c.Request.Context(), params.Page, params.Limit, c.Query("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve expenses: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"expenses":    expenses,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
		"total_pages": pagination.TotalPages(total, params.Limit),
	}))
}

// CreateExpense records a manual expense with its ledger pair
// @Summary      Create expense
// @Tags         finance
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateExpenseRequest  true  "Create Expense Payload"
// @Success      201      {object}  response.Response{data=model.Expense}
// @Failure      400      {object}  response.Response
// @Router       /api/finance/expenses [post]
func (h *FinanceHandler) CreateExpense(c *gin.Context) {
	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	expense, err := h.financeService.CreateExpense(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, expense))
}

// GetExpense returns one expense
// @Summary      Get expense
// @Tags         finance
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Expense uuid"
// @Success      200  {object}  response.Response{data=model.Expense}
// @Failure      404  {object}  response.Response
// @Router       /api/finance/expenses/{id} [get]
func (h *FinanceHandler) GetExpense(c *gin.Context) {
	expense, err := h.financeService.GetExpense(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

// UpdateExpenseStatus flips an expense between Pending and Cleared
// @Summary      Update expense status
// @Tags         finance
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string  true  "Expense uuid"
// @Param        payload  body  object  true  "{\"status\": \"Cleared\"}"
// @Success      200  {object}  response.Response{data=model.Expense}
// @Failure      400  {object}  response.Response
// @Router       /api/finance/expenses/{id}/status [patch]
func (h *FinanceHandler) UpdateExpenseStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	expense, err := h.financeService.UpdateExpenseStatus(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

// ListLedger returns a paginated ledger listing
// @Summary      List ledger entries
// @Tags         finance
// @Security     BearerAuth
// @Produce      json
// @Param        page     query  int     false  "Page number (default 1)"
// @Param        limit    query  int     false  "Items per page (default 20)"
// @Param        account  query  string  false  "Filter by account"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/finance/ledger [get]
func (h *FinanceHandler) ListLedger(c *gin.Context) {
	params := pagination.Parse(c)
	entries, total, err := h.financeService.ListLedger(c.Request.Context(), params.Page, params.Limit, c.Query("account"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve ledger: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"entries":     entries,
		"total":       total,
		"page":        params.Page,
		"limit":       params.Limit,
		"total_pages": pagination.TotalPages(total, params.Limit),
	}))
}

// RunSalaries posts the aggregate salary expense for active staff
// @Summary      Run salaries
// @Tags         finance
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.SalaryRunResult}
// @Failure      400  {object}  response.Response
// @Router       /api/finance/salary-run [post]
func (h *FinanceHandler) RunSalaries(c *gin.Context) {
	result, err := h.financeService.RunSalaries(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// Summary aggregates revenue against expenses over a period
// @Summary      Finance summary
// @Tags         finance
// @Security     BearerAuth
// @Produce      json
// @Param        from  query  string  false  "Period start (YYYY-MM-DD, default month start)"
// @Param        to    query  string  false  "Period end (YYYY-MM-DD, default now)"
// @Success      200  {object}  response.Response{data=service.FinanceSummary}
// @Failure      400  {object}  response.Response
// @Router       /api/finance/summary [get]
func (h *FinanceHandler) Summary(c *gin.Context) {
	from, to, err := parsePeriod(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	summary, err := h.financeService.Summary(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// parsePeriod reads from/to query params, defaulting to month-to-date.
func parsePeriod(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, errors.New("invalid from date, expected YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return from, to, errors.New("invalid to date, expected YYYY-MM-DD")
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	if to.Before(from) {
		return from, to, errors.New("to must not be before from")
	}
	return from, to, nil
}

func (h *FinanceHandler) writeError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrExpenseNotFound) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
}

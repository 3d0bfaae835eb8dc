package handler

import (
	"net/http"

	"budgetdesk/internal/service"
	"budgetdesk/pkg/pagination"
	"budgetdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type ExpenseHandler struct {
	expenseService service.ExpenseService
}

func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup) {
	expenses := router.Group("/expenses")
	{
		expenses.GET("", h.ListExpenses)
		expenses.GET("/project/:projectId", h.ListProjectExpenses)
		expenses.POST("", h.CreateExpense)
		expenses.PUT("/:id", h.UpdateExpense)
		expenses.DELETE("/:id", h.DeleteExpense)
		expenses.PUT("/:id/status", h.ReviewExpense)
	}
}

// ListExpenses returns a role-scoped, filtered page of expenses
// @Summary      List expenses
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        project_id   query  string  false  "Project filter"
// @Param        category_id  query  string  false  "Category filter"
// @Param        status       query  string  false  "Expense status"
// @Param        from         query  string  false  "Expense date lower bound"
// @Param        to           query  string  false  "Expense date upper bound"
// @Success      200  {object}  response.M
// @Router       /expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	page := pagination.Parse(c)

	expenses, total, err := h.expenseService.ListExpenses(c.Request.Context(), ident, service.ExpenseListFilter{
		ProjectID:  c.Query("project_id"),
		CategoryID: c.Query("category_id"),
		Status:     c.Query("status"),
		From:       c.Query("from"),
		To:         c.Query("to"),
		Page:       page.Page,
		Limit:      page.Limit,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.List("expenses", expenses, total, page.Page, page.Limit))
}

// ListProjectExpenses returns one project's expenses
func (h *ExpenseHandler) ListProjectExpenses(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	page := pagination.Parse(c)

	expenses, total, err := h.expenseService.ListExpenses(c.Request.Context(), ident, service.ExpenseListFilter{
		ProjectID: c.Param("projectId"),
		Status:    c.Query("status"),
		Page:      page.Page,
		Limit:     page.Limit,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.List("expenses", expenses, total, page.Page, page.Limit))
}

// CreateExpense submits a pending expense against a project
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), ident, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Entity("expense", expense))
}

// UpdateExpense edits a pending expense (submitter only)
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), ident, id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("expense", expense))
}

// DeleteExpense removes a pending expense (submitter only)
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.expenseService.DeleteExpense(c.Request.Context(), ident, id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Msg("expense deleted"))
}

// ReviewExpense approves or rejects a pending expense exactly once
// @Summary      Review expense
// @Description  Moves a pending expense to approved or rejected; approved amounts roll into project and category spend
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Expense id"
// @Param        payload  body      service.ReviewExpenseRequest  true  "Review decision"
// @Success      200      {object}  response.M
// @Failure      400      {object}  response.M
// @Failure      403      {object}  response.M
// @Router       /expenses/{id}/status [put]
func (h *ExpenseHandler) ReviewExpense(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.ReviewExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	expense, err := h.expenseService.ReviewExpense(c.Request.Context(), ident, id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("expense", expense))
}

package handler

import (
	"net/http"

	"budgetdesk/internal/service"
	"budgetdesk/pkg/pagination"
	"budgetdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type BudgetHandler struct {
	budgetService service.BudgetService
}

func NewBudgetHandler(budgetService service.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

func (h *BudgetHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/projects/:id/budget-categories", h.ListCategories)
	router.POST("/projects/:id/budget-categories", h.CreateCategory)
	router.GET("/projects/:id/budget-versions", h.ListVersions)

	categories := router.Group("/budget-categories")
	{
		categories.PUT("/:id", h.UpdateCategory)
		categories.DELETE("/:id", h.DeleteCategory)
	}
}

// ListCategories returns a project's budget categories
func (h *BudgetHandler) ListCategories(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	categories, err := h.budgetService.ListCategories(c.Request.Context(), ident, projectID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("budget_categories", categories))
}

// CreateCategory adds a named budget bucket to a project
// @Summary      Create budget category
// @Description  Category names are unique per project; the allocation rolls up to the project and snapshots a budget version
// @Tags         budget
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Project id"
// @Param        payload  body      service.CreateCategoryRequest  true  "Category payload"
// @Success      201      {object}  response.M
// @Failure      400      {object}  response.M
// @Router       /projects/{id}/budget-categories [post]
func (h *BudgetHandler) CreateCategory(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	category, err := h.budgetService.CreateCategory(c.Request.Context(), ident, projectID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Entity("budget_category", category))
}

// UpdateCategory renames or reallocates a budget category
func (h *BudgetHandler) UpdateCategory(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	category, err := h.budgetService.UpdateCategory(c.Request.Context(), ident, id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("budget_category", category))
}

// DeleteCategory removes an empty budget category
func (h *BudgetHandler) DeleteCategory(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.budgetService.DeleteCategory(c.Request.Context(), ident, id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Msg("budget category deleted"))
}

// ListVersions returns a project's budget snapshot history, newest first
func (h *BudgetHandler) ListVersions(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	page := pagination.Parse(c)

	versions, total, err := h.budgetService.ListVersions(c.Request.Context(), ident, projectID, page.Page, page.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.List("budget_versions", versions, total, page.Page, page.Limit))
}

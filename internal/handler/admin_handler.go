package handler

import (
	"net/http"

	"budgetdesk/internal/middleware"
	"budgetdesk/internal/model"
	"budgetdesk/internal/service"
	"budgetdesk/pkg/pagination"
	"budgetdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// RegisterRoutes binds the /admin surface. Every route requires the system
// admin role on top of authentication.
func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin", middleware.RequireSystemRole(model.SystemRoleAdmin))
	{
		admin.GET("/overview", h.Overview)
		admin.GET("/activity", h.ListActivity)

		admin.GET("/users", h.ListUsers)
		admin.POST("/users", h.CreateUser)
		admin.PUT("/users/:id", h.UpdateUser)
		admin.DELETE("/users/:id", h.DeleteUser)

		admin.PUT("/expenses/:id/status", h.OverrideExpenseStatus)
	}
}

// Overview returns system-wide dashboard aggregates
func (h *AdminHandler) Overview(c *gin.Context) {
	overview, err := h.adminService.Overview(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("overview", overview))
}

// ListActivity returns the admin activity log, newest first
func (h *AdminHandler) ListActivity(c *gin.Context) {
	page := pagination.Parse(c)

	logs, total, err := h.adminService.ListActivity(c.Request.Context(), service.ActivityListFilter{
		Action: c.Query("action"),
		UserID: c.Query("user_id"),
		Page:   page.Page,
		Limit:  page.Limit,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.List("activity", logs, total, page.Page, page.Limit))
}

// ListUsers returns a filtered page of user accounts
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page := pagination.Parse(c)

	users, total, err := h.adminService.ListUsers(c.Request.Context(), service.UserListFilter{
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Page:   page.Page,
		Limit:  page.Limit,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.List("users", users, total, page.Page, page.Limit))
}

// CreateUser creates an account with an explicit role
func (h *AdminHandler) CreateUser(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	var req service.AdminCreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	user, err := h.adminService.CreateUser(c.Request.Context(), ident, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Entity("user", user))
}

// UpdateUser edits profile, role or active flag; deactivation revokes sessions
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	user, err := h.adminService.UpdateUser(c.Request.Context(), ident, id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("user", user))
}

// DeleteUser soft-deletes an account after dependency checks
// @Summary      Delete user
// @Description  Refused while the user manages active projects or has pending expenses; self-deletion is rejected
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  response.M
// @Failure      400  {object}  response.M
// @Router       /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), ident, id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Msg("user deleted"))
}

// OverrideExpenseStatus forces an expense into any status and recomputes spend
func (h *AdminHandler) OverrideExpenseStatus(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.OverrideExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	expense, err := h.adminService.OverrideExpenseStatus(c.Request.Context(), ident, id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("expense", expense))
}

package handler

import (
	"net/http"
	"strconv"

	"budgetdesk/internal/service"
	"budgetdesk/pkg/pagination"
	"budgetdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projectService service.ProjectService
}

func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// RegisterRoutes binds the project endpoints. RequireAuth runs on the parent group.
func (h *ProjectHandler) RegisterRoutes(router *gin.RouterGroup) {
	projects := router.Group("/projects")
	{
		projects.GET("", h.ListProjects)
		projects.POST("", h.CreateProject)
		projects.GET("/dashboard/metrics", h.DashboardMetrics)
		projects.GET("/admin-projects", h.ListAdminProjects)
		projects.GET("/:id", h.GetProject)
		projects.PUT("/:id", h.UpdateProject)
		projects.DELETE("/:id", h.DeleteProject)
	}
}

// ListProjects returns a role-scoped, filtered page of projects
// @Summary      List projects
// @Description  Non-admin callers only see projects they manage or belong to
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        search            query  string  false  "Name/description search"
// @Param        status            query  string  false  "Project status"
// @Param        business_unit_id  query  string  false  "Business unit filter"
// @Param        year              query  int     false  "Start-date year"
// @Success      200  {object}  response.M
// @Router       /projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	page := pagination.Parse(c)
	year, _ := strconv.Atoi(c.Query("year"))

	projects, total, err := h.projectService.ListProjects(c.Request.Context(), ident, service.ProjectListFilter{
		Search:         c.Query("search"),
		Status:         c.Query("status"),
		BusinessUnitID: c.Query("business_unit_id"),
		Year:           year,
		Page:           page.Page,
		Limit:          page.Limit,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.List("projects", projects, total, page.Page, page.Limit))
}

// CreateProject creates a project with the caller as manager
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), ident, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Entity("project", project))
}

// GetProject returns one project with its team, milestones and budget categories
func (h *ProjectHandler) GetProject(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.projectService.GetProject(c.Request.Context(), ident, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateProject edits a project; budget changes snapshot a new version
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	project, err := h.projectService.UpdateProject(c.Request.Context(), ident, id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("project", project))
}

// DeleteProject deletes a project; dependents block unless ?cascade=true
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	cascade := c.Query("cascade") == "true"

	if err := h.projectService.DeleteProject(c.Request.Context(), ident, id, cascade); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Msg("project deleted"))
}

// DashboardMetrics returns the role-scoped dashboard aggregates
func (h *ProjectHandler) DashboardMetrics(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	metrics, err := h.projectService.DashboardMetrics(c.Request.Context(), ident)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("metrics", metrics))
}

// ListAdminProjects returns the projects the caller administers
func (h *ProjectHandler) ListAdminProjects(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	page := pagination.Parse(c)

	projects, total, err := h.projectService.ListAdminProjects(c.Request.Context(), ident, page.Page, page.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.List("projects", projects, total, page.Page, page.Limit))
}

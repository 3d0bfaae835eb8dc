package handler

import (
	"net/http"

	"budgetdesk/internal/service"
	"budgetdesk/pkg/pagination"
	"budgetdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type MilestoneHandler struct {
	milestoneService service.MilestoneService
}

func NewMilestoneHandler(milestoneService service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestoneService: milestoneService}
}

func (h *MilestoneHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/projects/:id/milestones", h.ListMilestones)
	router.POST("/projects/:id/milestones", h.CreateMilestone)

	milestones := router.Group("/milestones")
	{
		milestones.PUT("/:id", h.UpdateMilestone)
		milestones.DELETE("/:id", h.DeleteMilestone)
	}
}

// ListMilestones returns a project's milestones ordered by due date
func (h *MilestoneHandler) ListMilestones(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	page := pagination.Parse(c)

	milestones, total, err := h.milestoneService.ListMilestones(c.Request.Context(), ident, projectID, page.Page, page.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.List("milestones", milestones, total, page.Page, page.Limit))
}

// CreateMilestone adds a checkpoint to a project
func (h *MilestoneHandler) CreateMilestone(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.CreateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	milestone, err := h.milestoneService.CreateMilestone(c.Request.Context(), ident, projectID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Entity("milestone", milestone))
}

// UpdateMilestone edits a milestone; completion notifies the project team
func (h *MilestoneHandler) UpdateMilestone(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	milestone, err := h.milestoneService.UpdateMilestone(c.Request.Context(), ident, id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("milestone", milestone))
}

// DeleteMilestone removes a milestone
func (h *MilestoneHandler) DeleteMilestone(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.milestoneService.DeleteMilestone(c.Request.Context(), ident, id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Msg("milestone deleted"))
}

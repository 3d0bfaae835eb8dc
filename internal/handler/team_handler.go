package handler

import (
	"net/http"

	"budgetdesk/internal/service"
	"budgetdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type TeamHandler struct {
	teamService service.TeamService
}

func NewTeamHandler(teamService service.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

func (h *TeamHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/projects/:id/team", h.ListTeam)
	router.POST("/projects/:id/team", h.AddMember)
	router.PUT("/projects/:id/team/:userId", h.UpdateMemberRole)
	router.DELETE("/projects/:id/team/:userId", h.RemoveMember)
	router.POST("/projects/:id/admins/:userId", h.AssignAdmin)
	router.DELETE("/projects/:id/admins/:userId", h.RemoveAdmin)
}

// ListTeam returns a project's team with user profiles
func (h *TeamHandler) ListTeam(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	members, err := h.teamService.ListTeam(c.Request.Context(), ident, projectID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("team", members))
}

// AddMember adds a user to the project team
// @Summary      Add team member
// @Description  Adding an existing member is a conflict; the admin role is granted through the admins endpoint
// @Tags         team
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Project id"
// @Param        payload  body      service.AddMemberRequest  true  "Member payload"
// @Success      201      {object}  response.M
// @Failure      400      {object}  response.M
// @Router       /projects/{id}/team [post]
func (h *TeamHandler) AddMember(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	membership, err := h.teamService.AddMember(c.Request.Context(), ident, projectID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Entity("membership", membership))
}

// UpdateMemberRole changes a member's project role
func (h *TeamHandler) UpdateMemberRole(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	var req service.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	if err := h.teamService.UpdateMemberRole(c.Request.Context(), ident, projectID, userID, req); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Msg("role updated"))
}

// RemoveMember removes a non-admin member from the team
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	if err := h.teamService.RemoveMember(c.Request.Context(), ident, projectID, userID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Msg("member removed"))
}

// AssignAdmin promotes a user to project admin (idempotent)
func (h *TeamHandler) AssignAdmin(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	if err := h.teamService.AssignAdmin(c.Request.Context(), ident, projectID, userID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Msg("admin assigned"))
}

// RemoveAdmin demotes a project admin back to member
func (h *TeamHandler) RemoveAdmin(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	if err := h.teamService.RemoveAdmin(c.Request.Context(), ident, projectID, userID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Msg("admin removed"))
}

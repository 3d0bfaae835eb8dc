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

type BusinessUnitHandler struct {
	unitService service.BusinessUnitService
}

func NewBusinessUnitHandler(unitService service.BusinessUnitService) *BusinessUnitHandler {
	return &BusinessUnitHandler{unitService: unitService}
}

func (h *BusinessUnitHandler) RegisterRoutes(router *gin.RouterGroup) {
	units := router.Group("/business-units")
	{
		units.GET("", h.ListBusinessUnits)
		units.GET("/:id", h.GetBusinessUnit)

		// Mutations are reserved for system admins and managers.
		manage := middleware.RequireSystemRole(model.SystemRoleAdmin, model.SystemRoleManager)
		units.POST("", manage, h.CreateBusinessUnit)
		units.PUT("/:id", manage, h.UpdateBusinessUnit)
		units.DELETE("/:id", manage, h.DeleteBusinessUnit)
	}
}

// ListBusinessUnits returns business units, optionally filtered by name
func (h *BusinessUnitHandler) ListBusinessUnits(c *gin.Context) {
	page := pagination.Parse(c)

	units, total, err := h.unitService.ListBusinessUnits(c.Request.Context(), c.Query("search"), page.Page, page.Limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.List("business_units", units, total, page.Page, page.Limit))
}

// GetBusinessUnit returns one business unit
func (h *BusinessUnitHandler) GetBusinessUnit(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	unit, err := h.unitService.GetBusinessUnit(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("business_unit", unit))
}

// CreateBusinessUnit creates a business unit with a unique name
func (h *BusinessUnitHandler) CreateBusinessUnit(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	var req service.BusinessUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	unit, err := h.unitService.CreateBusinessUnit(c.Request.Context(), ident, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Entity("business_unit", unit))
}

// UpdateBusinessUnit edits name, description or head
func (h *BusinessUnitHandler) UpdateBusinessUnit(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.BusinessUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	unit, err := h.unitService.UpdateBusinessUnit(c.Request.Context(), ident, id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("business_unit", unit))
}

// DeleteBusinessUnit removes a business unit with no projects
func (h *BusinessUnitHandler) DeleteBusinessUnit(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.unitService.DeleteBusinessUnit(c.Request.Context(), ident, id); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Msg("business unit deleted"))
}

package handler

import (
	"net/http"

	"budgetdesk/internal/middleware"
	"budgetdesk/internal/repository"
	"budgetdesk/internal/service"
	"budgetdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	userRepo    repository.UserRepository
}

func NewAuthHandler(authService service.AuthService, userRepo repository.UserRepository) *AuthHandler {
	return &AuthHandler{authService: authService, userRepo: userRepo}
}

// RegisterRoutes binds the auth endpoints to the gin RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)

		auth.GET("/me", middleware.RequireAuth(h.userRepo), h.Me)
		auth.GET("/profile/:id", middleware.RequireAuth(h.userRepo), h.GetProfile)
		auth.PUT("/profile/:id", middleware.RequireAuth(h.userRepo), h.UpdateProfile)
	}
}

// Register creates an account and signs the new user in
// @Summary      Register
// @Description  Creates a user account with the default role and returns tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration payload"
// @Success      201      {object}  service.TokenResponse
// @Failure      400      {object}  response.M
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	tokens, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	middleware.SetTokenCookies(c, tokens.Token, tokens.RefreshToken)
	c.JSON(http.StatusCreated, tokens)
}

// Login authenticates by email and password
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  service.TokenResponse
// @Failure      401      {object}  response.M
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	middleware.SetTokenCookies(c, tokens.Token, tokens.RefreshToken)
	c.JSON(http.StatusOK, tokens)
}

// Refresh rotates the refresh token and issues a fresh access token. The old
// refresh token is consumed whether it comes from the cookie or the body.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie("refresh_token")
	if refreshToken == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = c.ShouldBindJSON(&body)
		refreshToken = body.RefreshToken
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		middleware.ClearTokenCookies(c)
		respondErr(c, err)
		return
	}

	middleware.SetTokenCookies(c, tokens.Token, tokens.RefreshToken)
	c.JSON(http.StatusOK, tokens)
}

// Logout revokes the refresh token and clears the session cookies
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie("refresh_token")
	if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
		respondErr(c, err)
		return
	}

	middleware.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Msg("logged out"))
}

// Me returns the authenticated caller's identity
func (h *AuthHandler) Me(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	profile, err := h.authService.GetProfile(c.Request.Context(), ident, ident.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("user", profile))
}

// GetProfile returns one user's profile (self or system admin)
func (h *AuthHandler) GetProfile(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	profile, err := h.authService.GetProfile(c.Request.Context(), ident, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("user", profile))
}

// UpdateProfile edits name, department or password (self or system admin)
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}

	profile, err := h.authService.UpdateProfile(c.Request.Context(), ident, id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Entity("user", profile))
}

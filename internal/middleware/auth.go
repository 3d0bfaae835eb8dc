package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"budgetdesk/internal/authz"
	"budgetdesk/internal/model"
	"budgetdesk/internal/repository"
	"budgetdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const identityKey = "identity"

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	// access_token: 24h, refresh_token: 7 days
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// extractToken pulls the access token from the cookie first, then falls back
// to the Authorization header.
func extractToken(c *gin.Context) (string, bool) {
	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth validates the JWT, loads the referenced user row and attaches
// the caller's Identity to the request context. The token carries only the
// user id; role and profile come fresh from the database so a role change or
// deactivation takes effect on the next request.
func RequireAuth(users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Authorization is missing"))
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return GetJWTSecret(), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Invalid or expired token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Invalid token claims"))
			return
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Invalid token subject"))
			return
		}
		userID, err := uuid.Parse(sub)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Invalid token subject"))
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("User no longer exists"))
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Err("Failed to resolve user"))
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Account is deactivated"))
			return
		}

		c.Set(identityKey, authz.Identity{
			ID:         user.ID,
			Email:      user.Email,
			FullName:   user.FullName,
			Department: user.Department,
			Role:       user.Role,
		})

		c.Next()
	}
}

// RequireSystemRole gates a route on the caller's global role. Must run after
// RequireAuth.
func RequireSystemRole(allowed ...model.SystemRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Authorization is missing"))
			return
		}

		for _, role := range allowed {
			if ident.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, response.Err("Access denied: insufficient role"))
	}
}

// CurrentIdentity returns the authenticated caller attached by RequireAuth.
func CurrentIdentity(c *gin.Context) (authz.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return authz.Identity{}, false
	}
	ident, ok := v.(authz.Identity)
	return ident, ok
}

package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"budgetdesk/internal/authz"
	"budgetdesk/internal/middleware"
	"budgetdesk/pkg/apperr"
	"budgetdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// respondErr maps a service error onto the HTTP boundary. Internal causes are
// logged here and never reach the response body.
func respondErr(c *gin.Context, err error) {
	if apperr.KindOf(err) == apperr.KindInternal {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(apperr.Status(err), response.Err(apperr.Message(err)))
}

// respondBindErr maps request binding failures. Validator failures come back
// as one message per offending field; anything else (malformed JSON, wrong
// types) gets the single-error envelope.
func respondBindErr(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, strings.ToLower(fe.Field())+" failed on the '"+fe.Tag()+"' rule")
		}
		c.JSON(http.StatusBadRequest, response.Errs(msgs))
		return
	}
	c.JSON(http.StatusBadRequest, response.Err("invalid request payload: "+err.Error()))
}

// identity returns the authenticated caller or aborts with 401. RequireAuth
// runs on every route that reaches here, so the miss is a wiring bug.
func identity(c *gin.Context) (authz.Identity, bool) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Err("Authorization is missing"))
		return authz.Identity{}, false
	}
	return ident, true
}

// uuidParam parses a path parameter as a UUID or aborts with 400.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, response.Err("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/madadental/clinic-api/internal/handler"
	"github.com/madadental/clinic-api/internal/model"
	"github.com/madadental/clinic-api/internal/service/auth"
)

const (
	// AdminCookie and PatientCookie carry the two independent session tokens.
	AdminCookie   = "admin_token"
	PatientCookie = "patient_token"

	ContextPrincipal = "principal"
)

type AuthMiddleware struct {
	authService auth.AuthService
}

func NewAuthMiddleware(authService auth.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// RequireAdmin admits only requests carrying a valid admin session cookie.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AdminCookie)
		if err != nil || token == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
			c.Abort()
			return
		}

		principal, err := m.authService.ValidateAdminToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid or expired session"))
			c.Abort()
			return
		}

		c.Set(ContextPrincipal, principal)
		c.Next()
	}
}

// RequireAdminOrPatient admits admins, and patients restricted to their own
// record by the :id route parameter.
func (m *AuthMiddleware) RequireAdminOrPatient() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(AdminCookie); err == nil && token != "" {
			if principal, err := m.authService.ValidateAdminToken(token); err == nil {
				c.Set(ContextPrincipal, principal)
				c.Next()
				return
			}
		}

		token, err := c.Cookie(PatientCookie)
		if err != nil || token == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
			c.Abort()
			return
		}

		principal, err := m.authService.ValidatePatientToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid or expired session"))
			c.Abort()
			return
		}

		id, err := uuid.Parse(c.Param("id"))
		if err != nil || principal.ID != id {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("access restricted to own record"))
			c.Abort()
			return
		}

		c.Set(ContextPrincipal, principal)
		c.Next()
	}
}

// PrincipalFrom retrieves the authenticated principal, if any.
func PrincipalFrom(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return nil, false
	}
	principal, ok := v.(model.Principal)
	return principal, ok
}

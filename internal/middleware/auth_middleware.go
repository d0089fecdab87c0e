package middleware

import (
	"strings"

	autherrors "callsync/internal/auth/errors"
	"callsync/internal/auth/token"
	"callsync/internal/shared/apperror"
	"callsync/internal/shared/contextutil"
	"callsync/internal/shared/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextPrincipalID   = "principal_id"
	ContextPrincipalRole = "principal_role"
)

// Authenticate verifies the bearer token (or the access_token cookie) and
// puts the principal on both the gin and the request context.
func Authenticate(verifier token.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			raw = ""
		}
		raw = strings.TrimSpace(raw)

		if raw == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				raw = cookie
			}
		}

		principal, err := verifier.Verify(raw)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(ContextPrincipalID, principal.ID)
		c.Set(ContextPrincipalRole, principal.Role)
		c.Request = c.Request.WithContext(contextutil.WithPrincipal(c.Request.Context(), principal))

		c.Next()
	}
}

// RequireRole must run after Authenticate. A missing principal is 401, a
// principal with another role is 403.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := contextutil.GetPrincipal(c.Request.Context())
		if !ok {
			abortWithError(c, autherrors.ErrTokenMissing)
			return
		}

		for _, role := range allowedRoles {
			if principal.Role == role {
				c.Next()
				return
			}
		}

		abortWithError(c, autherrors.ErrForbidden)
	}
}

func abortWithError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Abort(c, httpErr.Status, httpErr.Code, httpErr.Message)
}

package access

import (
	"callsync/internal/shared/apperror"
	"callsync/internal/shared/contextutil"
	"callsync/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// Require guards a route on kind and action. When ownerParam is set the path
// parameter of that name is taken as the resource owner.
func Require(g Guard, kind Kind, action Action, ownerParam string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, _ := contextutil.GetPrincipal(c.Request.Context())

		res := Resource{Kind: kind}
		if ownerParam != "" {
			res.OwnerID = c.Param(ownerParam)
		}

		if err := g.Authorize(principal, action, res).Err(); err != nil {
			httpErr := apperror.ToHTTP(err)
			response.Abort(c, httpErr.Status, httpErr.Code, httpErr.Message)
			return
		}

		c.Next()
	}
}

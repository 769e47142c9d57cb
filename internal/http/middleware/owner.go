package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/autumn-backend/internal/http/response"
	"github.com/yungbote/autumn-backend/internal/platform/apierr"
	"github.com/yungbote/autumn-backend/internal/platform/ctxutil"
)

const HeaderOwnerID = "X-Owner-ID"

// RequireOwner scopes the request to the owner named by X-Owner-ID. It does not authenticate.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderOwnerID))
		if raw == "" {
			response.RespondErr(c, apierr.BadRequest("missing_owner", "missing %s header", HeaderOwnerID))
			c.Abort()
			return
		}
		owner, err := uuid.Parse(raw)
		if err != nil || owner == uuid.Nil {
			response.RespondErr(c, apierr.BadRequest("invalid_owner", "invalid %s header", HeaderOwnerID))
			c.Abort()
			return
		}
		ctx, scope := ctxutil.Ensure(c.Request.Context())
		scope.OwnerID = owner
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/tradeguild-backend/internal/http/response"
	"github.com/yungbote/tradeguild-backend/internal/platform/ctxutil"
)

const headerUserID = "X-User-Id"

// AttachActor reads the acting user from X-User-Id. The header identifies,
// it does not authenticate; requests without it are anonymous.
func AttachActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(headerUserID))
		if raw == "" {
			c.Next()
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_actor", errors.New("X-User-Id must be a user id"))
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithActor(c.Request.Context(), id))
		c.Set("actor_id", id.String())
		c.Next()
	}
}

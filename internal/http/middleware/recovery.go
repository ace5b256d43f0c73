package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/breakdown-backend/internal/http/response"
	"github.com/yungbote/breakdown-backend/internal/platform/ctxutil"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

// Recovery turns a handler panic into a logged 500 JSON error.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, rec any) {
		if log != nil {
			log.Error("panic recovered",
				"path", c.Request.URL.Path,
				"request_id", ctxutil.RequestID(c.Request.Context()),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}
		response.RespondError(c, http.StatusInternalServerError, "internal server error")
	})
}

// BodyLimit caps request bodies at max bytes. Larger bodies fail to decode.
func BodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}

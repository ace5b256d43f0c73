package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of API errors that carry no result payload.
type ErrorBody struct {
	Error string `json:"error"`
}

func RespondError(c *gin.Context, status int, msg string) {
	if msg == "" {
		msg = "unknown error"
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: msg})
}

// RespondOK writes payload without HTML escaping so Mermaid arrows such as
// "-->" reach the client verbatim.
func RespondOK(c *gin.Context, payload any) {
	c.PureJSON(http.StatusOK, payload)
}

func RespondStatus(c *gin.Context, status int, payload any) {
	c.PureJSON(status, payload)
}

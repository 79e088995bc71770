package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload as the response body with the given status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes payload with a 200 status. Interaction acknowledgments go
// through here; Slack treats any 200 body as a valid ack.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tech-SuperSheldon/sagepilot-api/internal/upstream"
)

// Every endpoint renders one of a fixed set of outcome shapes: success,
// validation failure, not found, or upstream failure. Handlers never build
// ad hoc error bodies.

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": message})
}

// upstreamFailure reports a failed store query or external call. When the
// failure is a non-2xx upstream reply its payload is echoed verbatim under
// "error" for diagnostics; otherwise the error message is.
func upstreamFailure(c *gin.Context, message string, err error) {
	var ue *upstream.Error
	var detail any
	if errors.As(err, &ue) {
		detail = ue.Payload()
	} else {
		detail = err.Error()
	}
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": message, "error": detail})
}

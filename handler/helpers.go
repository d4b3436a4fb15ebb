package handler

import (
	"net/http"

	"attribution/model"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// respondError maps the engine's error taxonomy to HTTP status codes:
// validation 400, not found 404, state conflict 409, anything else 500.
// Errors are unwrapped first, so a taxonomy error keeps its status through
// errors.Wrap in the task layer.
func respondError(c *gin.Context, err error) {
	switch errors.Cause(err).(type) {
	case *model.ValidationError:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case *model.NotFoundError:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case *model.StateConflictError:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.WithError(err).Error("Request failed.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetAlertsHandler(c *gin.Context) {
	includeResolved := c.Query("include_resolved") == "true"
	alerts := services.Store.GetAllAlerts(includeResolved)
	c.JSON(http.StatusOK, alerts)
}

// ResolveAlertHandler marks an alert resolved. Resolving twice returns
// success without creating a duplicate resolution record.
func ResolveAlertHandler(c *gin.Context) {
	if err := services.Store.ResolveAlert(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// GenerateReportHandler builds the attribution report for the requested
// range. Pure query: repeated calls for an unchanged range hit the report
// cache.
func GenerateReportHandler(c *gin.Context) {
	from, errFrom := strconv.ParseInt(c.Query("from"), 10, 64)
	to, errTo := strconv.ParseInt(c.Query("to"), 10, 64)
	if errFrom != nil || errTo != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be unix timestamps"})
		return
	}

	report, err := services.Reports.GenerateReport(c.Request.Context(), from, to)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"from": from, "to": to}).Error("Report generation failed.")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

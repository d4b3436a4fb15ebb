package handler

import (
	"encoding/json"
	"net/http"

	"attribution/metrics"
	"attribution/model"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// IngestTouchPointHandler appends one touchpoint to the log. Malformed
// payloads and validation failures are rejected before any mutation.
func IngestTouchPointHandler(c *gin.Context) {
	var touchPoint model.TouchPoint
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&touchPoint); err != nil {
		log.WithError(err).Error("Failed to decode Json request on ingest touchpoint handler.")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid touchpoint payload"})
		return
	}

	created, err := services.Store.CreateTouchPoint(&touchPoint)
	if err != nil {
		metrics.IngestRejections.Inc()
		respondError(c, err)
		return
	}
	metrics.TouchpointsIngested.Inc()
	c.JSON(http.StatusCreated, created)
}

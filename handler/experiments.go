package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type createExperimentPayload struct {
	Name             string `json:"name"`
	ControlModelID   string `json:"control_model_id"`
	TreatmentModelID string `json:"treatment_model_id"`
	TrafficSplit     int    `json:"traffic_split"`
}

type stopExperimentPayload struct {
	Winner string `json:"winner"`
}

func GetExperimentsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, services.Store.GetAllExperiments())
}

func CreateExperimentHandler(c *gin.Context) {
	var payload createExperimentPayload
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		log.WithError(err).Error("Failed to decode Json request on create experiment handler.")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid experiment payload"})
		return
	}

	experiment, err := services.Experiments.CreateExperiment(
		payload.Name, payload.ControlModelID, payload.TreatmentModelID, payload.TrafficSplit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, experiment)
}

func StartExperimentHandler(c *gin.Context) {
	if err := services.Experiments.StartExperiment(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "running"})
}

func StopExperimentHandler(c *gin.Context) {
	var payload stopExperimentPayload
	if c.Request.ContentLength > 0 {
		if err := json.NewDecoder(c.Request.Body).Decode(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stop payload"})
			return
		}
	}
	if err := services.Experiments.StopExperiment(c.Param("id"), payload.Winner); err != nil {
		respondError(c, err)
		return
	}
	experiment, err := services.Store.GetExperiment(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, experiment)
}

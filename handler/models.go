package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func GetModelsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, services.Store.GetAllModels())
}

func GetModelHandler(c *gin.Context) {
	m, err := services.Store.GetModel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// SetActiveModelHandler flips the champion model.
func SetActiveModelHandler(c *gin.Context) {
	modelID := c.Param("id")
	if err := services.Store.SetActiveModel(modelID); err != nil {
		respondError(c, err)
		return
	}
	log.WithField("model_id", modelID).Info("Active model changed.")
	c.JSON(http.StatusOK, gin.H{"active_model": modelID})
}

// TrainModelHandler kicks off background training and returns a handle the
// caller can correlate with; progress is polled via GET /models/:id.
func TrainModelHandler(c *gin.Context) {
	handle, err := services.Trainer.TrainModel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"handle": handle})
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func registryResolver(t *testing.T) ModelResolver {
	models := make(map[string]*AttributionModel)
	for _, m := range DefaultModels(0) {
		models[m.ID] = m
	}
	return func(modelID string) (*AttributionModel, error) {
		m, ok := models[modelID]
		if !ok {
			return nil, NewNotFoundError("model", modelID)
		}
		return m, nil
	}
}

func TestEnsembleAveragesMembers(t *testing.T) {
	ensemble := &AttributionModel{
		ID:   AttributionModelEnsemble,
		Type: ModelTypeEnsemble,
		EnsembleMembers: map[string]float64{
			AttributionModelFirstTouch: 0.5,
			AttributionModelLastTouch:  0.5,
		},
	}
	weighter, err := NewJourneyWeighter(ensemble, DefaultWeightParams(), nil, registryResolver(t))
	assert.Nil(t, err)

	weights, err := weighter.Weights(threeTouch(100))
	assert.Nil(t, err)
	assert.InDelta(t, 0.5, weights["A"], 1e-9)
	assert.InDelta(t, 0.5, weights["C"], 1e-9)
	assert.Equal(t, 0.0, weights["B"])
}

func TestEnsembleValidatesMemberWeights(t *testing.T) {
	badSum := &AttributionModel{
		ID: AttributionModelEnsemble,
		EnsembleMembers: map[string]float64{
			AttributionModelFirstTouch: 0.5,
			AttributionModelLastTouch:  0.6,
		},
	}
	_, err := NewJourneyWeighter(badSum, DefaultWeightParams(), nil, registryResolver(t))
	assert.IsType(t, &ValidationError{}, err)

	tooFew := &AttributionModel{
		ID:              AttributionModelEnsemble,
		EnsembleMembers: map[string]float64{AttributionModelFirstTouch: 1.0},
	}
	_, err = NewJourneyWeighter(tooFew, DefaultWeightParams(), nil, registryResolver(t))
	assert.IsType(t, &ValidationError{}, err)
}

func TestEnsembleUnknownMemberSurfacesNotFound(t *testing.T) {
	ensemble := &AttributionModel{
		ID: AttributionModelEnsemble,
		EnsembleMembers: map[string]float64{
			AttributionModelFirstTouch: 0.5,
			"mystery":                  0.5,
		},
	}
	_, err := NewJourneyWeighter(ensemble, DefaultWeightParams(), nil, registryResolver(t))
	assert.IsType(t, &NotFoundError{}, err)
}

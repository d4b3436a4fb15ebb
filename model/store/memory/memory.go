package memory

import (
	"sort"
	"sync"
	"time"

	"attribution/model"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"
)

// MemoryStore is the in-memory implementation of model.Store. The touchpoint
// log and the alert list are append-only; journeys are derived per customer
// and cached in an LRU that is invalidated whenever the customer ingests a
// new touchpoint.
type MemoryStore struct {
	mu sync.RWMutex

	touchPoints  []model.TouchPoint
	byCustomer   map[string][]model.TouchPoint
	journeyCache *lru.Cache
	windowDays   int

	models        map[string]*model.AttributionModel
	modelOrder    []string
	activeModelID string

	accuracy map[string][]model.AccuracyPoint

	experiments     map[string]*model.AttributionExperiment
	experimentOrder []string

	alerts []model.AttributionAlert
}

// NewMemoryStore builds an empty store with the default model registry
// seeded and position_based active.
func NewMemoryStore(windowDays, journeyCacheSize int) *MemoryStore {
	cache, err := lru.New(journeyCacheSize)
	if err != nil {
		log.WithError(err).Fatal("Failed to init journey cache.")
	}
	store := &MemoryStore{
		byCustomer:   make(map[string][]model.TouchPoint),
		journeyCache: cache,
		windowDays:   windowDays,
		models:       make(map[string]*model.AttributionModel),
		accuracy:     make(map[string][]model.AccuracyPoint),
		experiments:  make(map[string]*model.AttributionExperiment),
	}
	for _, m := range model.DefaultModels(time.Now().Unix()) {
		if err := store.CreateModel(m); err != nil {
			log.WithError(err).WithField("model", m.ID).Error("Failed to seed default model.")
		}
	}
	return store
}

// CreateTouchPoint validates and appends a touchpoint, invalidating the
// customer's cached journeys. Validation failures are rejected before any
// mutation.
func (s *MemoryStore) CreateTouchPoint(tp *model.TouchPoint) (*model.TouchPoint, error) {
	if validationErr := tp.Validate(); validationErr != nil {
		return nil, validationErr
	}
	stored := *tp
	if stored.ID == "" {
		stored.ID = xid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchPoints = append(s.touchPoints, stored)
	s.byCustomer[stored.CustomerID] = append(s.byCustomer[stored.CustomerID], stored)
	s.journeyCache.Remove(stored.CustomerID)
	return &stored, nil
}

func (s *MemoryStore) GetTouchPointsInRange(from, to int64) []model.TouchPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []model.TouchPoint
	for _, tp := range s.touchPoints {
		if tp.Timestamp >= from && tp.Timestamp <= to {
			result = append(result, tp)
		}
	}
	return result
}

func (s *MemoryStore) GetTouchPointCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.touchPoints)
}

// GetJourneysInRange returns journeys whose start or conversion timestamp
// falls within the window. Journeys per customer come from the LRU cache
// when the customer has not ingested since they were built.
func (s *MemoryStore) GetJourneysInRange(from, to int64) []*model.CustomerJourney {
	s.mu.Lock()
	customerIDs := make([]string, 0, len(s.byCustomer))
	for customerID := range s.byCustomer {
		customerIDs = append(customerIDs, customerID)
	}
	sort.Strings(customerIDs)

	var journeys []*model.CustomerJourney
	for _, customerID := range customerIDs {
		var customerJourneys []*model.CustomerJourney
		if cached, ok := s.journeyCache.Get(customerID); ok {
			customerJourneys = cached.([]*model.CustomerJourney)
		} else {
			customerJourneys = model.BuildJourneys(s.byCustomer[customerID], s.windowDays)
			s.journeyCache.Add(customerID, customerJourneys)
		}
		for _, journey := range customerJourneys {
			anchor := journey.StartedAt
			if journey.Converted {
				anchor = journey.ConvertedAt
			}
			if anchor >= from && anchor <= to {
				journeys = append(journeys, copyJourney(journey))
			}
		}
	}
	s.mu.Unlock()
	return journeys
}

// copyJourney hands callers their own journey instance, so the weighting
// phase can attach weight maps without racing other reports.
func copyJourney(journey *model.CustomerJourney) *model.CustomerJourney {
	clone := *journey
	clone.TouchPoints = make([]model.TouchPoint, len(journey.TouchPoints))
	copy(clone.TouchPoints, journey.TouchPoints)
	clone.AttributionWeights = nil
	clone.RevenueDistribution = nil
	return &clone
}

func (s *MemoryStore) CreateModel(m *model.AttributionModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.models[m.ID]; exists {
		return model.NewValidationError("id", "model "+m.ID+" already registered")
	}
	clone := *m
	s.models[m.ID] = &clone
	s.modelOrder = append(s.modelOrder, m.ID)
	if clone.IsActive {
		s.activeModelID = clone.ID
	}
	return nil
}

func (s *MemoryStore) GetModel(id string) (*model.AttributionModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[id]
	if !ok {
		return nil, model.NewNotFoundError("model", id)
	}
	clone := *m
	return &clone, nil
}

func (s *MemoryStore) GetAllModels() []model.AttributionModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	models := make([]model.AttributionModel, 0, len(s.modelOrder))
	for _, id := range s.modelOrder {
		models = append(models, *s.models[id])
	}
	return models
}

func (s *MemoryStore) GetActiveModel() (*model.AttributionModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[s.activeModelID]
	if !ok {
		return nil, model.NewNotFoundError("model", s.activeModelID)
	}
	clone := *m
	return &clone, nil
}

// SetActiveModel atomically flips the champion: the target gains IsActive,
// every other model loses it. Readers observe either the old or the new
// champion, never both.
func (s *MemoryStore) SetActiveModel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.models[id]
	if !ok {
		return model.NewNotFoundError("model", id)
	}
	for _, m := range s.models {
		m.IsActive = false
	}
	target.IsActive = true
	target.UpdatedAt = time.Now().Unix()
	s.activeModelID = id
	return nil
}

func (s *MemoryStore) UpdateModel(m *model.AttributionModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.models[m.ID]
	if !ok {
		return model.NewNotFoundError("model", m.ID)
	}
	clone := *m
	// The champion flag is owned by SetActiveModel.
	clone.IsActive = existing.IsActive
	clone.UpdatedAt = time.Now().Unix()
	s.models[m.ID] = &clone
	return nil
}

func (s *MemoryStore) AppendAccuracyPoint(modelID string, point model.AccuracyPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[modelID]; !ok {
		return model.NewNotFoundError("model", modelID)
	}
	s.accuracy[modelID] = append(s.accuracy[modelID], point)
	return nil
}

func (s *MemoryStore) GetAccuracyHistory(modelID string, since int64) []model.AccuracyPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var history []model.AccuracyPoint
	for _, point := range s.accuracy[modelID] {
		if point.Timestamp >= since {
			history = append(history, point)
		}
	}
	return history
}

func (s *MemoryStore) CreateExperiment(e *model.AttributionExperiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if _, exists := s.experiments[e.ID]; exists {
		return model.NewValidationError("id", "experiment "+e.ID+" already exists")
	}
	clone := *e
	s.experiments[e.ID] = &clone
	s.experimentOrder = append(s.experimentOrder, e.ID)
	return nil
}

func (s *MemoryStore) GetExperiment(id string) (*model.AttributionExperiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.experiments[id]
	if !ok {
		return nil, model.NewNotFoundError("experiment", id)
	}
	clone := *e
	return &clone, nil
}

func (s *MemoryStore) GetAllExperiments() []model.AttributionExperiment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	experiments := make([]model.AttributionExperiment, 0, len(s.experimentOrder))
	for _, id := range s.experimentOrder {
		experiments = append(experiments, *s.experiments[id])
	}
	return experiments
}

func (s *MemoryStore) UpdateExperiment(e *model.AttributionExperiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.experiments[e.ID]; !ok {
		return model.NewNotFoundError("experiment", e.ID)
	}
	clone := *e
	s.experiments[e.ID] = &clone
	return nil
}

func (s *MemoryStore) CreateAlert(a *model.AttributionAlert) (*model.AttributionAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *a
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt == 0 {
		stored.CreatedAt = time.Now().Unix()
	}
	s.alerts = append(s.alerts, stored)
	return &stored, nil
}

func (s *MemoryStore) GetAllAlerts(includeResolved bool) []model.AttributionAlert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var alerts []model.AttributionAlert
	for _, alert := range s.alerts {
		if includeResolved || !alert.Resolved {
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

// ResolveAlert marks an alert resolved. Resolving an already-resolved alert
// is a no-op, not an error.
func (s *MemoryStore) ResolveAlert(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID != id {
			continue
		}
		if !s.alerts[i].Resolved {
			s.alerts[i].Resolved = true
			s.alerts[i].ResolvedAt = time.Now().Unix()
		}
		return nil
	}
	return model.NewNotFoundError("alert", id)
}

func (s *MemoryStore) HasUnresolvedAlert(alertType, subject string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.alerts {
		if !s.alerts[i].Resolved && s.alerts[i].Type == alertType && s.alerts[i].Subject == subject {
			return true
		}
	}
	return false
}

package store

import (
	"sync"

	C "attribution/config"
	"attribution/model"
	storeMemory "attribution/model/store/memory"
)

var instance model.Store
var once sync.Once

// GetStore - Should decide on which store implementation to use by
// configuration and return it. Only the in-memory store exists today;
// journeys are always derived, so a durable backend can be added behind
// this seam without schema changes elsewhere.
func GetStore() model.Store {
	once.Do(func() {
		conf := C.GetConfig()
		instance = storeMemory.NewMemoryStore(conf.AttributionWindowDays, conf.JourneyCacheSize)
	})
	return instance
}

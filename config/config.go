package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const DEVELOPMENT = "development"
const PRODUCTION = "production"

var conf *Configuration
var initiated bool = false

// Configuration is the engine's tunable surface. Defaults match the
// documented values; any field can be overridden through flags in app or
// through ATTRIBUTION_* environment variables.
type Configuration struct {
	Env  string `envconfig:"ENV"`
	Port int    `envconfig:"PORT"`

	AttributionWindowDays int     `envconfig:"WINDOW_DAYS"`
	TimeDecayHalfLifeDays float64 `envconfig:"HALF_LIFE_DAYS"`
	FirstTouchWeight      float64 `envconfig:"FIRST_TOUCH_WEIGHT"`
	LastTouchWeight       float64 `envconfig:"LAST_TOUCH_WEIGHT"`
	MiddleTouchWeight     float64 `envconfig:"MIDDLE_TOUCH_WEIGHT"`

	CriticalityROASWeight    float64 `envconfig:"CRITICALITY_ROAS_WEIGHT"`
	CriticalityRevenueWeight float64 `envconfig:"CRITICALITY_REVENUE_WEIGHT"`
	CriticalityAssistWeight  float64 `envconfig:"CRITICALITY_ASSIST_WEIGHT"`

	SynergyMinSampleSize int `envconfig:"SYNERGY_MIN_SAMPLE"`
	SynergyTopN          int `envconfig:"SYNERGY_TOP_N"`
	RecommendationTopN   int `envconfig:"RECOMMENDATION_TOP_N"`
	TopJourneys          int `envconfig:"TOP_JOURNEYS"`

	DriftAccuracyThreshold  float64       `envconfig:"DRIFT_ACCURACY_THRESHOLD"`
	ShareShiftThreshold     float64       `envconfig:"SHARE_SHIFT_THRESHOLD"`
	EfficiencyGainThreshold float64       `envconfig:"EFFICIENCY_GAIN_THRESHOLD"`
	DriftLookbackDays       int           `envconfig:"DRIFT_LOOKBACK_DAYS"`
	DriftInterval           time.Duration `envconfig:"DRIFT_INTERVAL"`

	ExperimentMinEvaluationDays  int           `envconfig:"EXPERIMENT_MIN_EVALUATION_DAYS"`
	ExperimentSignificanceCutoff float64       `envconfig:"EXPERIMENT_SIGNIFICANCE_CUTOFF"`
	ExperimentLiftCutoff         float64       `envconfig:"EXPERIMENT_LIFT_CUTOFF"`
	ExperimentInterval           time.Duration `envconfig:"EXPERIMENT_INTERVAL"`

	ReportWorkers    int `envconfig:"REPORT_WORKERS"`
	JourneyCacheSize int `envconfig:"JOURNEY_CACHE_SIZE"`
	ReportCacheSize  int `envconfig:"REPORT_CACHE_SIZE"`
}

// DefaultConfiguration returns the documented defaults.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Env:  DEVELOPMENT,
		Port: 8080,

		AttributionWindowDays: 30,
		TimeDecayHalfLifeDays: 7.0,
		FirstTouchWeight:      0.4,
		LastTouchWeight:       0.4,
		MiddleTouchWeight:     0.2,

		CriticalityROASWeight:    0.4,
		CriticalityRevenueWeight: 0.3,
		CriticalityAssistWeight:  0.3,

		SynergyMinSampleSize: 4,
		SynergyTopN:          10,
		RecommendationTopN:   5,
		TopJourneys:          10,

		DriftAccuracyThreshold:  3.0,
		ShareShiftThreshold:     10.0,
		EfficiencyGainThreshold: 0.5,
		DriftLookbackDays:       7,
		DriftInterval:           time.Minute,

		ExperimentMinEvaluationDays:  7,
		ExperimentSignificanceCutoff: 95.0,
		ExperimentLiftCutoff:         5.0,
		ExperimentInterval:           time.Minute,

		ReportWorkers:    8,
		JourneyCacheSize: 1024,
		ReportCacheSize:  64,
	}
}

// InitConf applies the ATTRIBUTION_* environment overlay and installs the
// configuration singleton.
func InitConf(configuration *Configuration) error {
	if err := envconfig.Process("attribution", configuration); err != nil {
		return errors.Wrap(err, "failed to process env overrides")
	}
	conf = configuration
	initiated = true
	return nil
}

// GetConfig returns the installed configuration. Falls back to defaults so
// that unit tests need no explicit init.
func GetConfig() *Configuration {
	if !initiated {
		log.Warn("Config not initialized. Using defaults.")
		conf = DefaultConfiguration()
		initiated = true
	}
	return conf
}

func IsDevelopment() bool {
	return GetConfig().Env == DEVELOPMENT
}

func GetAttributionWindowDays() int {
	return GetConfig().AttributionWindowDays
}

func GetReportWorkers() int {
	workers := GetConfig().ReportWorkers
	if workers < 1 {
		workers = 1
	}
	return workers
}

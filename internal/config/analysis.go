package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AnalysisConfig tunes the price analysis rules.
type AnalysisConfig struct {
	// OutlierSigma is the number of standard deviations beyond which a unit price is flagged.
	OutlierSigma float64 `mapstructure:"outlierSigma"`
	// MinCompetitors is the proposal count below which competition is reported as insufficient.
	MinCompetitors int `mapstructure:"minCompetitors"`
	// Parallelism bounds concurrent per-item resolution within one analysis.
	Parallelism int `mapstructure:"parallelism"`
	// EligibleProposalStatuses lists the proposal statuses whose bids are analyzed.
	EligibleProposalStatuses []string `mapstructure:"eligibleProposalStatuses"`
}

func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		OutlierSigma:             2,
		MinCompetitors:           3,
		Parallelism:              8,
		EligibleProposalStatuses: []string{"submitted", "accepted"},
	}
}

type AnalysisConfigHolder struct {
	current atomic.Value // holds AnalysisConfig
}

// NewStaticAnalysisConfig returns a holder that never reloads.
func NewStaticAnalysisConfig(cfg AnalysisConfig) *AnalysisConfigHolder {
	holder := &AnalysisConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewAnalysisConfigHolder() (*AnalysisConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("analysis")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/tenderscope")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TENDERSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultAnalysisConfig()
	v.SetDefault("analysis.outlierSigma", defaults.OutlierSigma)
	v.SetDefault("analysis.minCompetitors", defaults.MinCompetitors)
	v.SetDefault("analysis.parallelism", defaults.Parallelism)
	v.SetDefault("analysis.eligibleProposalStatuses", defaults.EligibleProposalStatuses)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	// Start from defaults so keys missing from a partial file keep them.
	cfg := DefaultAnalysisConfig()
	if err := v.UnmarshalKey("analysis", &cfg); err != nil {
		return nil, err
	}
	if err := validateAnalysisConfig(cfg); err != nil {
		return nil, err
	}

	holder := &AnalysisConfigHolder{}
	holder.current.Store(cfg)

	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultAnalysisConfig()
		if err := v.UnmarshalKey("analysis", &updated); err != nil {
			log.Printf("[analysis-config] reload failed: %v", err)
			return
		}
		if err := validateAnalysisConfig(updated); err != nil {
			log.Printf("[analysis-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[analysis-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *AnalysisConfigHolder) Get() AnalysisConfig {
	if h == nil {
		return DefaultAnalysisConfig()
	}
	cfg, ok := h.current.Load().(AnalysisConfig)
	if !ok {
		return DefaultAnalysisConfig()
	}
	return cfg
}

func validateAnalysisConfig(cfg AnalysisConfig) error {
	if cfg.OutlierSigma <= 0 {
		return errors.New("analysis.outlierSigma must be positive")
	}
	if cfg.MinCompetitors < 1 {
		return errors.New("analysis.minCompetitors must be at least 1")
	}
	if cfg.Parallelism < 1 {
		return errors.New("analysis.parallelism must be at least 1")
	}
	if len(cfg.EligibleProposalStatuses) == 0 {
		return errors.New("analysis.eligibleProposalStatuses cannot be empty")
	}
	return nil
}

// Package engineconfig loads the attribution engine's configuration,
// grounded on the teacher's settings package: a flat JSON struct loaded
// from a base file with an optional local-override file merged on top via
// plain encoding/json, defaulting when neither file exists.
package engineconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/attrieng/engine/internal/attrerr"
)

// Config is the full configuration surface for the attribution engine.
type Config struct {
	Matching     MatchingConfig     `json:"matching"`
	AutoCleanup  AutoCleanupConfig  `json:"autoCleanup"`
	DeveloperMode bool              `json:"developerMode"`
}

// MatchingConfig controls the candidate filter pipeline and classifier.
type MatchingConfig struct {
	TimeWindowDays           int     `json:"timeWindowDays"`
	LengthTolerance          float64 `json:"lengthTolerance"`
	ThresholdAI              float64 `json:"thresholdAI"`
	ThresholdAIModified      float64 `json:"thresholdAIModified"`
	PerformanceThresholdMs   int64   `json:"performanceThresholdMs"`
}

// AutoCleanupConfig controls the retention manager.
type AutoCleanupConfig struct {
	Enabled           bool `json:"enabled"`
	RetentionDays     int  `json:"retentionDays"`
	CheckIntervalHours int `json:"checkIntervalHours"`
}

// Default returns the configuration defaults named in the engine's
// configuration surface.
func Default() Config {
	return Config{
		Matching: MatchingConfig{
			TimeWindowDays:         3,
			LengthTolerance:        0.5,
			ThresholdAI:            0.90,
			ThresholdAIModified:    0.70,
			PerformanceThresholdMs: 500,
		},
		AutoCleanup: AutoCleanupConfig{
			Enabled:            true,
			RetentionDays:      7,
			CheckIntervalHours: 24,
		},
		DeveloperMode: false,
	}
}

// Load reads configPath, then merges configLocalPath on top if it exists,
// returning defaults for any file that is absent. Works the same way
// settings.Load layers .entire/settings.json with .entire/settings.local.json.
func Load(configPath, configLocalPath string) (Config, error) {
	cfg := Default()

	if err := mergeFromFile(&cfg, configPath); err != nil {
		return Config{}, err
	}
	if err := mergeFromFile(&cfg, configLocalPath); err != nil {
		return Config{}, err
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: reading %s: %v", attrerr.ErrIOFailure, path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", attrerr.ErrInvalidConfig, path, err)
	}
	return nil
}

// Validate enforces the invariants named in the engine's error-handling
// design: threshold ordering, non-negative retention, tolerance in [0,1].
func Validate(cfg Config) error {
	m := cfg.Matching
	if !(0 < m.ThresholdAIModified && m.ThresholdAIModified <= m.ThresholdAI && m.ThresholdAI <= 1) {
		return fmt.Errorf("%w: thresholds must satisfy 0 < thresholdAIModified <= thresholdAI <= 1 (got %v, %v)",
			attrerr.ErrInvalidConfig, m.ThresholdAIModified, m.ThresholdAI)
	}
	if m.LengthTolerance < 0 || m.LengthTolerance > 1 {
		return fmt.Errorf("%w: lengthTolerance must be in [0,1] (got %v)", attrerr.ErrInvalidConfig, m.LengthTolerance)
	}
	if m.TimeWindowDays < 0 {
		return fmt.Errorf("%w: timeWindowDays must be non-negative (got %d)", attrerr.ErrInvalidConfig, m.TimeWindowDays)
	}
	if cfg.AutoCleanup.RetentionDays < 0 {
		return fmt.Errorf("%w: retentionDays must be non-negative (got %d)", attrerr.ErrInvalidConfig, cfg.AutoCleanup.RetentionDays)
	}
	if cfg.AutoCleanup.CheckIntervalHours < 0 {
		return fmt.Errorf("%w: checkIntervalHours must be non-negative (got %d)", attrerr.ErrInvalidConfig, cfg.AutoCleanup.CheckIntervalHours)
	}
	if m.PerformanceThresholdMs < 0 {
		return fmt.Errorf("%w: performanceThresholdMs must be non-negative (got %d)", attrerr.ErrInvalidConfig, m.PerformanceThresholdMs)
	}
	return nil
}

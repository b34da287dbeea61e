package config

import (
	"fmt"

	"github.com/Veraticus/clearance/internal/common"
	"github.com/Veraticus/clearance/internal/health"
	"github.com/spf13/viper"
)

// Config keys.
const (
	KeyDatabasePath         = "database.path"
	KeyPriceDeviation       = "thresholds.price_deviation"
	KeyCartonWeightKg       = "thresholds.carton_weight_kg"
	KeyCartonVolumeM3       = "thresholds.carton_volume_m3"
	KeyMinHistorySamples    = "thresholds.min_history_samples"
	KeyMinDeclarationLength = "thresholds.min_declaration_length"
	KeyLogLevel             = "logging.level"
	KeyLogFormat            = "logging.format"
)

// Config is the resolved application configuration.
type Config struct {
	DatabasePath string
	LogLevel     string
	LogFormat    string
	Thresholds   health.Thresholds
}

// SetDefaults registers default values on a viper instance.
func SetDefaults(v *viper.Viper) {
	th := health.DefaultThresholds()
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyPriceDeviation, th.PriceDeviation)
	v.SetDefault(KeyCartonWeightKg, th.CartonWeightKg)
	v.SetDefault(KeyCartonVolumeM3, th.CartonVolumeM3)
	v.SetDefault(KeyMinHistorySamples, th.MinHistorySamples)
	v.SetDefault(KeyMinDeclarationLength, th.MinDeclarationLength)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Load resolves the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom resolves the configuration from a viper instance, applying defaults and
// validating thresholds.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		DatabasePath: ExpandPath(v.GetString(KeyDatabasePath)),
		LogLevel:     v.GetString(KeyLogLevel),
		LogFormat:    v.GetString(KeyLogFormat),
		Thresholds: health.Thresholds{
			PriceDeviation:       v.GetFloat64(KeyPriceDeviation),
			CartonWeightKg:       v.GetFloat64(KeyCartonWeightKg),
			CartonVolumeM3:       v.GetFloat64(KeyCartonVolumeM3),
			MinHistorySamples:    v.GetInt(KeyMinHistorySamples),
			MinDeclarationLength: v.GetInt(KeyMinDeclarationLength),
		},
	}

	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("%w: %s is empty", common.ErrInvalidConfig, KeyDatabasePath)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	return cfg, nil
}

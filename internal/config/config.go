// Package config loads application configuration from file, environment and
// defaults, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Classify ClassifyConfig `yaml:"classify" mapstructure:"classify"`
	Change   ChangeConfig   `yaml:"change" mapstructure:"change"`
	Postproc PostprocConfig `yaml:"postproc" mapstructure:"postproc"`
	Serve    ServeConfig    `yaml:"serve" mapstructure:"serve"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run store.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ClassifyConfig holds the fixed rule constants and sampling settings.
// Percentile thresholds are not configurable; they are recomputed from the
// data every run.
type ClassifyConfig struct {
	ReflectanceThreshold  float64 `yaml:"reflectance_threshold" mapstructure:"reflectance_threshold"`
	NDWIThreshold         float64 `yaml:"ndwi_threshold" mapstructure:"ndwi_threshold"`
	NDVIMaxCeiling        float64 `yaml:"ndvi_max_ceiling" mapstructure:"ndvi_max_ceiling"`
	NDVIMaxCeilingMixed   float64 `yaml:"ndvi_max_ceiling_mixed" mapstructure:"ndvi_max_ceiling_mixed"`
	NDVIRangeCeiling      float64 `yaml:"ndvi_range_ceiling" mapstructure:"ndvi_range_ceiling"`
	ElevationCeiling      float64 `yaml:"elevation_ceiling" mapstructure:"elevation_ceiling"`
	RoadBufferM           float64 `yaml:"road_buffer_m" mapstructure:"road_buffer_m"`
	BuildingBufferM       float64 `yaml:"building_buffer_m" mapstructure:"building_buffer_m"`
	BuildingBufferSoilM   float64 `yaml:"building_buffer_soil_m" mapstructure:"building_buffer_soil_m"`
	WaterBufferM          float64 `yaml:"water_buffer_m" mapstructure:"water_buffer_m"`
	ImperviousnessBufferM float64 `yaml:"imperviousness_buffer_m" mapstructure:"imperviousness_buffer_m"`
	ImperviousnessResM    float64 `yaml:"imperviousness_res_m" mapstructure:"imperviousness_res_m"`
	ForestCodes           []int   `yaml:"forest_codes" mapstructure:"forest_codes"`
	LowVegCodes           []int   `yaml:"low_veg_codes" mapstructure:"low_veg_codes"`
	AgricultureCodes      []int   `yaml:"agriculture_codes" mapstructure:"agriculture_codes"`
	SampleSeed            int64   `yaml:"sample_seed" mapstructure:"sample_seed"`
}

// ChangeConfig configures change detection.
type ChangeConfig struct {
	GainWindow    int     `yaml:"gain_window" mapstructure:"gain_window"`
	GainThreshold float64 `yaml:"gain_threshold" mapstructure:"gain_threshold"`
	MinSizeHa     float64 `yaml:"min_size_ha" mapstructure:"min_size_ha"`
	ModeWindow    int     `yaml:"mode_window" mapstructure:"mode_window"`
}

// PostprocConfig configures the 7-to-6 class corrector.
type PostprocConfig struct {
	MixedElevation       float64 `yaml:"mixed_elevation" mapstructure:"mixed_elevation"`
	BuiltUpElevation     float64 `yaml:"builtup_elevation" mapstructure:"builtup_elevation"`
	AgricultureElevation float64 `yaml:"agriculture_elevation" mapstructure:"agriculture_elevation"`
	MinAgrPatchHa        float64 `yaml:"min_agr_patch_ha" mapstructure:"min_agr_patch_ha"`
}

// ServeConfig configures the HTTP API.
type ServeConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LANDCOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "landcover.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("serve.port", 8080)
	v.SetDefault("classify.reflectance_threshold", 500.0)
	v.SetDefault("classify.ndwi_threshold", 130.0)
	v.SetDefault("classify.ndvi_max_ceiling", 200.0)
	v.SetDefault("classify.ndvi_max_ceiling_mixed", 220.0)
	v.SetDefault("classify.ndvi_range_ceiling", 50.0)
	v.SetDefault("classify.elevation_ceiling", 1000.0)
	v.SetDefault("classify.road_buffer_m", 10.0)
	v.SetDefault("classify.building_buffer_m", 100.0)
	v.SetDefault("classify.building_buffer_soil_m", 50.0)
	v.SetDefault("classify.water_buffer_m", 50.0)
	v.SetDefault("classify.imperviousness_buffer_m", 100.0)
	v.SetDefault("classify.imperviousness_res_m", 100.0)
	v.SetDefault("classify.forest_codes", []int{82, 83})
	v.SetDefault("classify.low_veg_codes", []int{102})
	v.SetDefault("classify.agriculture_codes", []int{73, 75})
	v.SetDefault("classify.sample_seed", 1)
	v.SetDefault("change.gain_window", 4)
	v.SetDefault("change.gain_threshold", 0.5)
	v.SetDefault("change.min_size_ha", 1.0)
	v.SetDefault("change.mode_window", 0)
	v.SetDefault("postproc.mixed_elevation", 1000.0)
	v.SetDefault("postproc.builtup_elevation", 1500.0)
	v.SetDefault("postproc.agriculture_elevation", 800.0)
	v.SetDefault("postproc.min_agr_patch_ha", 1.5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Mode is one of
// "training", "change", "postproc" or "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "training", "change", "postproc", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Store.Path == "" {
		problems = append(problems, "store.path is required")
	}
	if mode == "serve" && c.Serve.Port <= 0 {
		problems = append(problems, "serve.port must be > 0")
	}
	if mode == "change" {
		if c.Change.GainThreshold < 0 || c.Change.GainThreshold > 1 {
			problems = append(problems, "change.gain_threshold must be between 0 and 1")
		}
		if c.Change.MinSizeHa < 0 {
			problems = append(problems, "change.min_size_ha must be >= 0")
		}
		if c.Change.GainWindow < 2 {
			problems = append(problems, "change.gain_window must be >= 2")
		}
	}
	if mode == "postproc" && c.Postproc.MinAgrPatchHa < 0 {
		problems = append(problems, "postproc.min_agr_patch_ha must be >= 0")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

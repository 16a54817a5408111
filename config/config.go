package config

import (
	"fmt"
	"strings"
	"time"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log       Logger    `mapstructure:"logger"`
	Analytics Analytics `mapstructure:"analytics"`
	Audit     Audit     `mapstructure:"audit"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Analytics holds the metric parameters the engine consumes but does not
// own: they describe the run being analyzed, not the engine itself.
type Analytics struct {
	RiskFreeRate     float64   `mapstructure:"risk_free_rate" validate:"gte=0"`
	ConfidenceLevels []float64 `mapstructure:"confidence_levels" validate:"min=1,dive,gt=0,lt=1"`
	RollingWindow    int       `mapstructure:"rolling_window" validate:"gte=2"`
	SortinoTarget    float64   `mapstructure:"sortino_target"`
	PeriodsPerYear   int       `mapstructure:"periods_per_year" validate:"gte=1"`
}

type Audit struct {
	MatchTolerance       time.Duration `mapstructure:"match_tolerance" validate:"gt=0"`
	PendingExpiryBars    int           `mapstructure:"pending_expiry_bars" validate:"gte=1"`
	CacheCleanupInterval time.Duration `mapstructure:"cache_cleanup_interval" validate:"gt=0"`
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")
	viper.SetDefault("analytics.risk_free_rate", 0.02)
	viper.SetDefault("analytics.confidence_levels", []float64{0.95, 0.99})
	viper.SetDefault("analytics.rolling_window", 252)
	viper.SetDefault("analytics.sortino_target", 0.0)
	viper.SetDefault("analytics.periods_per_year", 252)
	viper.SetDefault("audit.match_tolerance", 60*time.Second)
	viper.SetDefault("audit.pending_expiry_bars", 500)
	viper.SetDefault("audit.cache_cleanup_interval", 5*time.Minute)
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the engine defaults without touching config files or the
// environment.
func Default() *Config {
	return &Config{
		Log: Logger{Level: "info", Encoding: "json"},
		Analytics: Analytics{
			RiskFreeRate:     0.02,
			ConfidenceLevels: []float64{0.95, 0.99},
			RollingWindow:    252,
			SortinoTarget:    0,
			PeriodsPerYear:   252,
		},
		Audit: Audit{
			MatchTolerance:       60 * time.Second,
			PendingExpiryBars:    500,
			CacheCleanupInterval: 5 * time.Minute,
		},
	}
}

func (c *Config) Validate() error {
	return goValidator.New().Struct(c)
}

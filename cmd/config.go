package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teemow/dealdesk/internal/availability"
)

// envPrefix prefixes every environment variable read through viper,
// e.g. DEALDESK_DATABASE_DSN.
const envPrefix = "DEALDESK"

// Settings is the process configuration, read once at startup.
type Settings struct {
	Engine availability.Config `mapstructure:"engine"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Transport        string   `mapstructure:"transport"`
	HTTPAddr         string   `mapstructure:"http_addr"`
	DisableStreaming bool     `mapstructure:"disable_streaming"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AccessLog        bool     `mapstructure:"access_log"`

	Database struct {
		DSN        string        `mapstructure:"dsn"`
		Migrate    bool          `mapstructure:"migrate"`
		StaleAfter time.Duration `mapstructure:"stale_after"`
	} `mapstructure:"database"`

	Redis struct {
		Addr       string        `mapstructure:"addr"`
		Password   string        `mapstructure:"password"`
		DB         int           `mapstructure:"db"`
		RateLimit  int           `mapstructure:"rate_limit"`
		RateWindow time.Duration `mapstructure:"rate_window"`
	} `mapstructure:"redis"`

	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Addr    string `mapstructure:"addr"`
	} `mapstructure:"metrics"`

	Google struct {
		ClientID     string `mapstructure:"client_id"`
		ClientSecret string `mapstructure:"client_secret"`
		// RefreshTokens maps account names to provisioned refresh tokens.
		RefreshTokens map[string]string `mapstructure:"refresh_tokens"`
	} `mapstructure:"google"`
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":            "log.level",
	"log-format":           "log.format",
	"default-timezone":     "engine.default_timezone",
	"transport":            "transport",
	"http-addr":            "http_addr",
	"disable-streaming":    "disable_streaming",
	"allowed-origins":      "allowed_origins",
	"access-log":           "access_log",
	"database-url":         "database.dsn",
	"migrate":              "database.migrate",
	"stale-after":          "database.stale_after",
	"redis-addr":           "redis.addr",
	"rate-limit":           "redis.rate_limit",
	"rate-window":          "redis.rate_window",
	"metrics-enabled":      "metrics.enabled",
	"metrics-addr":         "metrics.addr",
	"google-client-id":     "google.client_id",
	"google-client-secret": "google.client_secret",
}

func setDefaults(v *viper.Viper) {
	engine := availability.DefaultConfig()
	v.SetDefault("engine.default_timezone", engine.DefaultTimezone)
	v.SetDefault("engine.default_duration_minutes", engine.DefaultDurationMinutes)
	v.SetDefault("engine.min_duration_minutes", engine.MinDurationMinutes)
	v.SetDefault("engine.max_duration_minutes", engine.MaxDurationMinutes)
	v.SetDefault("engine.working_hours.start", engine.WorkingHours.Start)
	v.SetDefault("engine.working_hours.end", engine.WorkingHours.End)
	v.SetDefault("engine.max_range_days", engine.MaxRangeDays)
	v.SetDefault("engine.max_slots", engine.MaxSlots)
	v.SetDefault("engine.default_window_days", engine.DefaultWindowDays)
	v.SetDefault("engine.primary_granularity", engine.PrimaryGranularity)
	v.SetDefault("engine.secondary_granularity", engine.SecondaryGranularity)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("transport", "stdio")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("disable_streaming", false)
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("access_log", true)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.migrate", false)
	v.SetDefault("database.stale_after", 15*time.Minute)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.rate_limit", 60)
	v.SetDefault("redis.rate_window", time.Minute)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.refresh_tokens", map[string]string{})
}

// loadSettings merges defaults, the config file, DEALDESK_* environment variables
// and the flags that were set, in increasing order of precedence.
func loadSettings(flags *pflag.FlagSet, path string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Settings{}, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dealdesk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "dealdesk"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := settings.Engine.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid engine configuration: %w", err)
	}

	return settings, nil
}

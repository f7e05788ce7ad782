// Package config loads server settings from a YAML file, a .env file and
// the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/warp/overtime-engine/overtime"
)

// Config is the whole server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Overtime OvertimeConfig `yaml:"overtime"`
}

type ServerConfig struct {
	Port        int        `yaml:"port"`
	CORSOrigins []string   `yaml:"cors_origins"`
	LogLevelRaw string     `yaml:"log_level"`
	LogLevel    slog.Level `yaml:"-"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// OvertimeConfig holds the calculation settings.
type OvertimeConfig struct {
	// ReferenceZoneRaw is "+07:00", "UTC+07:00" or an IANA name like "Asia/Jakarta".
	ReferenceZoneRaw string                  `yaml:"reference_zone"`
	ReferenceZone    *time.Location          `yaml:"-"`
	FallbackRaw      string                  `yaml:"day_type_fallback"`
	Fallback         overtime.FallbackPolicy `yaml:"-"`
	// SeedFile is an optional JSON array of configurations loaded at startup.
	SeedFile string `yaml:"seed_file"`
}

// Default returns the settings used when nothing else is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
			LogLevelRaw: "info",
		},
		Database: DatabaseConfig{Path: "overtime.db"},
		Overtime: OvertimeConfig{
			ReferenceZoneRaw: "+07:00",
			FallbackRaw:      string(overtime.FallbackMonFri),
		},
	}
}

// Load reads path (optional), then .env and environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	// .env is optional
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := getEnv("OVERTIME_PORT", ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid OVERTIME_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getEnvSlice("OVERTIME_CORS_ORIGINS"); len(v) > 0 {
		c.Server.CORSOrigins = v
	}
	c.Server.LogLevelRaw = getEnv("OVERTIME_LOG_LEVEL", c.Server.LogLevelRaw)
	c.Database.Path = getEnv("OVERTIME_DB_PATH", c.Database.Path)
	c.Overtime.ReferenceZoneRaw = getEnv("OVERTIME_REFERENCE_ZONE", c.Overtime.ReferenceZoneRaw)
	c.Overtime.FallbackRaw = getEnv("OVERTIME_DAY_TYPE_FALLBACK", c.Overtime.FallbackRaw)
	c.Overtime.SeedFile = getEnv("OVERTIME_SEED_FILE", c.Overtime.SeedFile)
	return nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if err := c.Server.LogLevel.UnmarshalText([]byte(c.Server.LogLevelRaw)); err != nil {
		return fmt.Errorf("config: server.log_level: %w", err)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path must be set")
	}
	return c.Overtime.validateAndNormalize()
}

func (o *OvertimeConfig) validateAndNormalize() error {
	zone, err := ParseZone(o.ReferenceZoneRaw)
	if err != nil {
		return fmt.Errorf("config: overtime.reference_zone: %w", err)
	}
	o.ReferenceZone = zone

	fallback, err := overtime.ParseFallbackPolicy(o.FallbackRaw)
	if err != nil {
		return fmt.Errorf("config: overtime.day_type_fallback: %w", err)
	}
	o.Fallback = fallback
	return nil
}

var offsetPattern = regexp.MustCompile(`^([+-])(\d{2}):(\d{2})$`)

// ParseZone accepts a fixed offset ("+07:00", "UTC+07:00") or an IANA
// location name. Empty means overtime.DefaultZone. Locations are pinned to
// their current standard offset; names that observe daylight saving time
// are rejected because band hours are read on a fixed offset.
func ParseZone(raw string) (*time.Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return overtime.DefaultZone, nil
	}
	offset := strings.TrimPrefix(raw, "UTC")
	if m := offsetPattern.FindStringSubmatch(offset); m != nil {
		h, _ := strconv.Atoi(m[2])
		mins, _ := strconv.Atoi(m[3])
		if h > 14 || mins > 59 {
			return nil, fmt.Errorf("offset %q out of range", raw)
		}
		secs := h*3600 + mins*60
		if m[1] == "-" {
			secs = -secs
		}
		return time.FixedZone("UTC"+offset, secs), nil
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		return nil, fmt.Errorf("unknown zone %q: %w", raw, err)
	}
	year := time.Now().Year()
	_, jan := time.Date(year, time.January, 1, 12, 0, 0, 0, loc).Zone()
	_, jul := time.Date(year, time.July, 1, 12, 0, 0, 0, loc).Zone()
	if jan != jul {
		return nil, fmt.Errorf("zone %q observes daylight saving time, use a fixed offset like \"+07:00\"", raw)
	}
	return time.FixedZone(raw, jan), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/config"
	"github.com/warp/overtime-engine/overtime"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, slog.LevelInfo, cfg.Server.LogLevel)
	assert.Equal(t, "overtime.db", cfg.Database.Path)
	assert.Equal(t, overtime.FallbackMonFri, cfg.Overtime.Fallback)

	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, cfg.Overtime.ReferenceZone).Zone()
	assert.Equal(t, 7*3600, offset)
}

func TestLoad_FileAndEnv(t *testing.T) {
	// GIVEN: a YAML file and an env override for the port
	path := writeFile(t, `
server:
  port: 9090
  log_level: debug
database:
  path: /var/lib/overtime/overtime.db
overtime:
  reference_zone: Asia/Jakarta
  day_type_fallback: all_working
`)
	t.Setenv("OVERTIME_PORT", "7070")
	t.Setenv("OVERTIME_CORS_ORIGINS", "https://hr.example.com, https://admin.example.com")

	// WHEN
	cfg, err := config.Load(path)

	// THEN: env wins over the file, the file wins over defaults
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, slog.LevelDebug, cfg.Server.LogLevel)
	assert.Equal(t, []string{"https://hr.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/var/lib/overtime/overtime.db", cfg.Database.Path)
	assert.Equal(t, "Asia/Jakarta", cfg.Overtime.ReferenceZone.String())
	assert.Equal(t, overtime.FallbackAllWorking, cfg.Overtime.Fallback)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"bad log level", "server:\n  log_level: chatty\n"},
		{"bad zone", "overtime:\n  reference_zone: Mars/Olympus\n"},
		{"bad fallback", "overtime:\n  day_type_fallback: sun_thu\n"},
		{"bad yaml", "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, tt.yaml))
			assert.Error(t, err)
		})
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseZone(t *testing.T) {
	tests := []struct {
		raw    string
		offset int
	}{
		{"+07:00", 7 * 3600},
		{"UTC+07:00", 7 * 3600},
		{"-03:30", -(3*3600 + 30*60)},
		{"", 7 * 3600},
		{"UTC", 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			loc, err := config.ParseZone(tt.raw)
			require.NoError(t, err)
			_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
			assert.Equal(t, tt.offset, offset)
		})
	}

	_, err := config.ParseZone("+25:00")
	assert.Error(t, err)
}

func TestParseZone_Locations(t *testing.T) {
	// GIVEN: a location without daylight saving time
	loc, err := config.ParseZone("Asia/Jakarta")

	// THEN: it is pinned to its offset and keeps its name
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
	_, offset := time.Date(1950, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 7*3600, offset)

	// WHEN: the location shifts its offset during the year
	_, err = config.ParseZone("America/New_York")

	// THEN: it is refused
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daylight saving")

	_, err = config.ParseZone("Europe/Berlin")
	assert.Error(t, err)
}

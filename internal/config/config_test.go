package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "visionline_db", cfg.MongoDB)
	assert.Equal(t, 5*time.Minute, cfg.AlarmTTL)
	assert.Equal(t, 3*time.Minute, cfg.Gauss.Window)
	assert.Equal(t, []int{0, 30}, cfg.Migtra.OffsetSeconds)
	assert.Equal(t, []int{10}, cfg.Gauss.OffsetSeconds)
	assert.False(t, cfg.Migtra.Enabled)
	assert.True(t, cfg.Migtra.MarkWhenDisabled)
}

func TestLoad_MissingMongoURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_EnabledTargetNeedsURL(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MIGTRA_ENABLED", "true")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("MIGTRA_URL", "http://migtra.example/api/gps")
	cfg, err := Load()
	assert.NoError(t, err)
	assert.True(t, cfg.Migtra.Enabled)
}

func TestLoad_GaussNeedsCredentials(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("GAUSS_ENABLED", "true")
	t.Setenv("GAUSS_URL", "http://gauss.example/api/positions")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("GAUSS_TOKEN_URL", "http://gauss.example/oauth/token")
	t.Setenv("GAUSS_USERNAME", "svc")
	t.Setenv("GAUSS_PASSWORD", "secret")
	cfg, err := Load()
	assert.NoError(t, err)
	assert.True(t, cfg.Gauss.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("GAUSS_WINDOW", "10m")
	t.Setenv("ALARM_CACHE_TTL", "90s")
	t.Setenv("MIGTRA_MARK_WHEN_DISABLED", "false")
	t.Setenv("MIGTRA_RUN_OFFSETS", "0,20,40")
	t.Setenv("GAUSS_RUN_OFFSETS", "5, 35")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.Gauss.Window)
	assert.Equal(t, 90*time.Second, cfg.AlarmTTL)
	assert.False(t, cfg.Migtra.MarkWhenDisabled)
	assert.Equal(t, []int{0, 20, 40}, cfg.Migtra.OffsetSeconds)
	assert.Equal(t, []int{5, 35}, cfg.Gauss.OffsetSeconds)
}

func TestLoad_BadOffsets(t *testing.T) {
	cases := []struct {
		name  string
		value string
	}{
		{"not a number", "0,thirty"},
		{"beyond a minute", "0,75"},
		{"negative", "-5"},
		{"empty list", ","},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("MONGO_URI", "mongodb://localhost:27017")
			t.Setenv("MIGTRA_RUN_OFFSETS", tc.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgresql://localhost/doors")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("CORS_ORIGINS", "https://office.example.com, http://localhost:3000 ,")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "production-events", cfg.EventsChannel)
	assert.Equal(t, []string{"https://office.example.com", "http://localhost:3000"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsTest())
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.EqualError(t, err, "DATABASE_URL is required")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid postgres", Config{DatabaseURL: "x", DBDriver: "postgres", GoEnv: "development"}, false},
		{"valid sqlite", Config{DatabaseURL: "x", DBDriver: "sqlite", GoEnv: "test"}, false},
		{"unknown driver", Config{DatabaseURL: "x", DBDriver: "mysql"}, true},
		{"production without auth0", Config{DatabaseURL: "x", DBDriver: "postgres", GoEnv: "production"}, true},
		{"production with auth0", Config{DatabaseURL: "x", DBDriver: "postgres", GoEnv: "production", Auth0Domain: "d", Auth0Audience: "a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(&Config{GoEnv: "production", LogLevel: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1), "debug should be disabled at warn level")

	logger, err = NewLogger(&Config{GoEnv: "development", LogLevel: "not-a-level"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(0), "info should be enabled by default")
}

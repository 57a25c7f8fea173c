package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoadFile_Defaults проверяет значения по умолчанию без .env файла
func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "data/urls.db", cfg.SQLite.Path)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Empty(t, cfg.Auth.APIKeys)
	assert.Equal(t, "info", cfg.Log.Level)
}

// TestLoadFile_FromFile проверяет чтение значений из .env файла
func TestLoadFile_FromFile(t *testing.T) {
	path := writeEnvFile(t, `APP_PORT=9090
DB_DRIVER=postgres
DB_HOST=db
DB_NAME=shortener
DB_USER=user
REDIS_HOST=cache
CACHE_TTL=1h
API_KEYS=k1:first, k2:second
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "db", cfg.DB.Host)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, "shortener", cfg.DB.Name)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "6379", cfg.Redis.Port)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, map[string]string{"k1": "first", "k2": "second"}, cfg.Auth.APIKeys)
}

// TestLoadFile_EnvOverridesFile проверяет приоритет переменных окружения
func TestLoadFile_EnvOverridesFile(t *testing.T) {
	path := writeEnvFile(t, "APP_PORT=9090\n")
	t.Setenv("APP_PORT", "7070")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.App.Port)
}

// TestLoadFile_Invalid проверяет отклонение некорректной конфигурации
func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "неизвестный драйвер", content: "DB_DRIVER=mysql\n"},
		{name: "postgres без хоста", content: "DB_DRIVER=postgres\nDB_NAME=x\n"},
		{name: "нулевой таймаут", content: "APP_SHUTDOWN_TIMEOUT=0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeEnvFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestParseAPIKeys(t *testing.T) {
	assert.Empty(t, parseAPIKeys(""))
	assert.Equal(t, map[string]string{"a": "b"}, parseAPIKeys("a:b,broken"))
	assert.Equal(t, map[string]string{"a": "b:c"}, parseAPIKeys(" a : b:c "))
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "STORE_DRIVER", "DATABASE_URL", "MONGO_URI", "MONGO_DATABASE",
		"CORS_ALLOWED_ORIGINS", "MAX_PHOTO_BYTES", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_PostgresDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/social")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, defaultMaxPhotoBytes, cfg.MaxPhotoBytes)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoad_RequiresDriverSettings(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	assert.EqualError(t, err, "DATABASE_URL is required")

	t.Setenv("STORE_DRIVER", "mongo")
	_, err = Load()
	assert.EqualError(t, err, "MONGO_URI is required")

	t.Setenv("STORE_DRIVER", "redis")
	_, err = Load()
	assert.EqualError(t, err, `unsupported STORE_DRIVER "redis"`)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", " Mongo ")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DATABASE", "mern")
	t.Setenv("PORT", "3000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("MAX_PHOTO_BYTES", "1024")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "mern", cfg.MongoDatabase)
	assert.Equal(t, ":3000", cfg.HTTPAddress())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.EqualValues(t, 1024, cfg.MaxPhotoBytes)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidPhotoLimitFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("MAX_PHOTO_BYTES", "-5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, defaultMaxPhotoBytes, cfg.MaxPhotoBytes)
}

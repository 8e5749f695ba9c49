package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("MAX_BULK_COMPUTERS", "")
	t.Setenv("LAB_DELETE_CASCADE", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := LoadConfig()

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 100, cfg.Inventory.MaxBulkComputers)
	assert.False(t, cfg.Inventory.LabCascadeDelete)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORS.AllowedOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("MAX_BULK_COMPUTERS", "25")
	t.Setenv("LAB_DELETE_CASCADE", "true")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "30m")
	t.Setenv("MAIL_RECIPIENTS", " a@x.io, ,b@x.io ")

	cfg := LoadConfig()

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Inventory.MaxBulkComputers)
	assert.True(t, cfg.Inventory.LabCascadeDelete)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, cfg.Mail.Recipients)
}

func TestParseHelpersFallBack(t *testing.T) {
	assert.Equal(t, 7, parseInt("seven", 7))
	assert.Equal(t, time.Hour, parseDuration("soon", time.Hour))
	assert.True(t, parseBool("maybe", true))
	assert.Empty(t, parseList(""))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigToml = `
[development]
host = "localhost"
port = 9000
allowed_origins = ["http://localhost:3000"]
log_level = "debug"
store_backend = "postgres"
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "movements"
redis_host = "localhost"
redis_port = "6379"

[production]
host = "0.0.0.0"
port = 8080
timezone = "Europe/London"
store_backend = "sheets"
store_timeout = "5s"
sheet_name = "kicks"
google_credentials_file = "/etc/movements/credentials.json"
write_rate_limit_per_min = 30
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestToml_Get(t *testing.T) {
	dev := &Config{Port: 1}
	prod := &Config{Port: 2}
	tc := &Toml{Development: dev, Production: prod}

	for _, env := range []string{"dev", "development", "DEV"} {
		cfg, err := tc.Get(env)
		require.NoError(t, err)
		assert.Same(t, dev, cfg)
	}
	for _, env := range []string{"prod", "production", "Production"} {
		cfg, err := tc.Get(env)
		require.NoError(t, err)
		assert.Same(t, prod, cfg)
	}

	cfg, err := tc.Get("staging")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_Development(t *testing.T) {
	path := writeTestConfig(t, testConfigToml)

	cfg, err := Load("development", path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, StoreBackendPostgres, cfg.StoreBackend)
	assert.Equal(t, DefaultStoreTimeout, cfg.StoreTimeout)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 0, cfg.WriteRateLimitPerMin)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_ProductionWithEnvOverrides(t *testing.T) {
	path := writeTestConfig(t, testConfigToml)

	t.Setenv("MOVEMENT_SPREADSHEET_ID", "sheet-123")
	t.Setenv("REDIS_PASS", "redis-secret")
	t.Setenv("SENTRY_DSN", "https://key@sentry.example/1")
	t.Setenv("SERVICE_PORT", "9100")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("prod", path)
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", cfg.SpreadsheetID)
	assert.Equal(t, "redis-secret", cfg.RedisPassword)
	assert.Equal(t, "https://key@sentry.example/1", cfg.SentryDSN)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	// not overridden
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "kicks", cfg.SheetName)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 30, cfg.WriteRateLimitPerMin)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/London", loc.String())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("dev", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := writeTestConfig(t, testConfigToml)
	_, err = Load("staging", path)
	assert.Error(t, err)

	// sheets backend without a spreadsheet id
	_, err = Load("production", path)
	assert.ErrorContains(t, err, "spreadsheet_id")

	onlyDev := writeTestConfig(t, "[development]\nport = 1\nstore_backend = \"postgres\"\n")
	_, err = Load("production", onlyDev)
	assert.ErrorContains(t, err, "not found")
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		StoreBackend:          StoreBackendSheets,
		SpreadsheetID:         "id",
		GoogleCredentialsFile: "creds.json",
	}
	assert.NoError(t, valid.Validate())

	unknownBackend := valid
	unknownBackend.StoreBackend = "excel"
	assert.ErrorContains(t, unknownBackend.Validate(), "unknown store backend")

	noPostgres := valid
	noPostgres.StoreBackend = StoreBackendPostgres
	assert.ErrorContains(t, noPostgres.Validate(), "postgres")

	badTimezone := valid
	badTimezone.Timezone = "Mars/Olympus_Mons"
	assert.ErrorContains(t, badTimezone.Validate(), "timezone")

	several := Config{StoreBackend: StoreBackendSheets, WriteRateLimitPerMin: -1}
	err := several.Validate()
	assert.ErrorContains(t, err, "spreadsheet_id")
	assert.ErrorContains(t, err, "google_credentials_file")
	assert.ErrorContains(t, err, "write_rate_limit_per_min")
}

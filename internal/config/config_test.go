package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ADDR", "LEDGER_CURRENCY", "LOG_LEVEL", "LOG_FORMAT", "STORAGE_DRIVER", "DATABASE_URL",
		"BOLT_PATH", "SUPABASE_URL", "SUPABASE_ANON_KEY", "SUPABASE_SERVICE_ROLE_KEY",
		"JWT_HS256_SECRET", "JWT_ISSUER", "JWT_AUDIENCE", "DEV_SEED", "FORBID_REFERENCED_ACCOUNT_DELETE",
	} {
		t.Setenv(k, "")
	}
	chdir(t, t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.False(t, cfg.DevSeed)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
currency: EUR
storage:
  driver: Bolt
  bolt_path: /tmp/x.db
auth:
  jwt_hs256_secret: from-yaml
dev_seed: true
`), 0o600))
	t.Setenv("ADDR", ":9100")
	t.Setenv("FORBID_REFERENCED_ACCOUNT_DELETE", "yes")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Addr)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, DriverBolt, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.BoltPath)
	assert.Equal(t, "from-yaml", cfg.Auth.HS256Secret)
	assert.True(t, cfg.DevSeed)
	assert.True(t, cfg.ForbidReferencedDelete)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	envPath := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("DATABASE_URL=postgres://localhost/ledger\nDEV_SEED=1\n"), 0o600))
	// godotenv does not override variables that are already set, even when empty
	require.NoError(t, os.Unsetenv("DATABASE_URL"))
	require.NoError(t, os.Unsetenv("DEV_SEED"))
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("DEV_SEED")
	})

	cfg, err := Load("", envPath)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.True(t, cfg.DevSeed)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	_, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", "cassandra")
	_, err = Load("", "")
	assert.ErrorContains(t, err, "unknown storage driver")

	t.Setenv("STORAGE_DRIVER", "supabase")
	_, err = Load("", "")
	assert.ErrorContains(t, err, "SUPABASE_URL")

	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("DEV_SEED", "maybe")
	_, err = Load("", "")
	assert.ErrorContains(t, err, "DEV_SEED")

	t.Setenv("DEV_SEED", "")
	t.Setenv("LEDGER_CURRENCY", "XYZ")
	_, err = Load("", "")
	assert.ErrorContains(t, err, "currency")
}

// chdir is a go1.21-compatible stand-in for testing.T.Chdir (added in go1.24):
// it changes the working directory and restores it when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty file uses defaults",
			yaml:    ``,
			wantErr: "",
		},
		{
			name:    "valid config",
			yaml:    "address: 127.0.0.1:9000\nlog_level: debug\n",
			wantErr: "",
		},
		{
			name:    "memory driver needs no dsn",
			yaml:    "database:\n  driver: memory\n  dsn: \"\"\n",
			wantErr: "",
		},
		{
			name:    "postgres driver requires dsn",
			yaml:    "database:\n  driver: postgres\n  dsn: \"\"\n",
			wantErr: "config validation failed",
		},
		{
			name:    "unknown driver fails validation",
			yaml:    "database:\n  driver: mongo\n",
			wantErr: "config validation failed",
		},
		{
			name:    "empty address fails validation",
			yaml:    `address: ""`,
			wantErr: "config validation failed",
		},
		{
			name:    "relative public_url fails validation",
			yaml:    `public_url: "/api"`,
			wantErr: "config validation failed",
		},
		{
			name:    "unknown fields are rejected",
			yaml:    `root_uri: "https://example.com"`,
			wantErr: "failed to unmarshal config file",
		},
		{
			name:    "invalid log level",
			yaml:    `log_level: loud`,
			wantErr: "failed to unmarshal config file",
		},
		{
			name:    "invalid yaml syntax",
			yaml:    `invalid: [yaml: content`,
			wantErr: "failed to unmarshal config file",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			path := writeTestConfig(t, test.yaml)
			cfg, err := Load(path)

			if test.wantErr != "" {
				require.ErrorContains(t, err, test.wantErr)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
		})
	}
}

func TestLoad_MergesDefaults(t *testing.T) {
	t.Parallel()

	path := writeTestConfig(t, "log_level: warn\ndatabase:\n  driver: memory\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, Default().Address, cfg.Address)
	assert.Equal(t, Default().Database.DSN, cfg.Database.DSN)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	require.ErrorContains(t, err, "failed to read config file")
	assert.Nil(t, cfg)
}

func TestConfig_MarshalRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.PublicURL = "https://tasks.example.com"
	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "log_level: INFO")

	loaded, err := Load(writeTestConfig(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)
	return path
}

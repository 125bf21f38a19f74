package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "start"}
	cmd.Flags().String("grpc-addr", DefaultGRPCAddr, "")
	cmd.Flags().String("log-level", DefaultLogLevel, "")
	cmd.Flags().Bool("standalone", false, "")
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()

	v, err := SetupViper(home, nil)
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, Default(home), cfg)
	assert.Equal(t, filepath.Join(home, GenesisFileName), cfg.GenesisPath())
}

func TestLoadConfigFile(t *testing.T) {
	home := t.TempDir()
	cfg := Default(home)
	cfg.GRPCAddr = "0.0.0.0:9090"
	cfg.MetricsAddr = ""
	cfg.LogLevel = "debug"
	_, err := cfg.Write(false)
	require.NoError(t, err)

	v, err := SetupViper(home, nil)
	require.NoError(t, err)
	got, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, cfg, got)
}

func TestEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	_, err := Default(home).Write(false)
	require.NoError(t, err)

	t.Setenv("QUADGOV_GRPC_ADDR", "127.0.0.1:7000")
	t.Setenv("QUADGOV_STANDALONE", "true")

	v, err := SetupViper(home, nil)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.GRPCAddr)
	assert.True(t, cfg.Standalone)
}

func TestFlagsOverrideEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("QUADGOV_GRPC_ADDR", "127.0.0.1:7000")

	cmd := newCmd()
	require.NoError(t, cmd.Flags().Parse([]string{"--grpc-addr", "127.0.0.1:8000", "--standalone"}))

	v, err := SetupViper(home, cmd)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8000", cfg.GRPCAddr)
	assert.True(t, cfg.Standalone)
}

func TestUnsetFlagKeepsEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("QUADGOV_LOG_LEVEL", "warn")

	v, err := SetupViper(home, newCmd())
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadDotEnv(t *testing.T) {
	home := t.TempDir()
	const key = "QUADGOV_METRICS_ADDR"
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))

	require.NoError(t, os.WriteFile(filepath.Join(home, DotEnvFileName),
		[]byte(key+"=127.0.0.1:9100\n"), 0o644))
	require.NoError(t, LoadDotEnv(home))

	v, err := SetupViper(home, nil)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
}

func TestLoadDotEnvMissing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(t.TempDir()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"metrics disabled", func(c *Config) { c.MetricsAddr = "" }, ""},
		{"bad grpc addr", func(c *Config) { c.GRPCAddr = "localhost" }, "grpc_addr"},
		{"bad metrics addr", func(c *Config) { c.MetricsAddr = "nope" }, "metrics_addr"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"no genesis", func(c *Config) { c.GenesisFile = "" }, "genesis_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenesisPathAbsolute(t *testing.T) {
	cfg := Default("/var/lib/quadgov")
	cfg.GenesisFile = "/etc/quadgov/genesis.yaml"
	assert.Equal(t, "/etc/quadgov/genesis.yaml", cfg.GenesisPath())
}

func TestWriteRefusesOverwrite(t *testing.T) {
	home := t.TempDir()
	cfg := Default(home)

	path, err := cfg.Write(false)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = cfg.Write(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = cfg.Write(true)
	assert.NoError(t, err)
}

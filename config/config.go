// Package config loads quadgovd settings from flags, environment, a
// .env file and an optional config.yaml in the home directory.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/blockberries/quadgov/logging"
)

const (
	// EnvPrefix prefixes every environment override, e.g. QUADGOV_GRPC_ADDR.
	EnvPrefix = "QUADGOV"

	ConfigFileName  = "config.yaml"
	GenesisFileName = "genesis.yaml"
	DotEnvFileName  = ".env"
)

// Viper keys.
const (
	KeyHome        = "home"
	KeyGRPCAddr    = "grpc_addr"
	KeyMetricsAddr = "metrics_addr"
	KeyLogLevel    = "log_level"
	KeyGenesisFile = "genesis_file"
	KeyStandalone  = "standalone"
)

// Defaults.
const (
	DefaultGRPCAddr    = "127.0.0.1:26658"
	DefaultMetricsAddr = "127.0.0.1:26660"
	DefaultLogLevel    = "info"
)

// Config holds the resolved daemon settings.
type Config struct {
	Home        string `yaml:"-"`
	GRPCAddr    string `yaml:"grpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	GenesisFile string `yaml:"genesis_file"`
	Standalone  bool   `yaml:"standalone"`
}

// Default returns the configuration written by `quadgovd init`.
func Default(home string) Config {
	return Config{
		Home:        home,
		GRPCAddr:    DefaultGRPCAddr,
		MetricsAddr: DefaultMetricsAddr,
		LogLevel:    DefaultLogLevel,
		GenesisFile: GenesisFileName,
	}
}

// DefaultHome is $QUADGOV_HOME, or ~/.quadgov.
func DefaultHome() string {
	if home := os.Getenv(EnvPrefix + "_HOME"); home != "" {
		return home
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".quadgov"
	}
	return filepath.Join(dir, ".quadgov")
}

// LoadDotEnv loads home/.env into the process environment. Variables
// already set are left alone. A missing file is not an error.
func LoadDotEnv(home string) error {
	path := filepath.Join(home, DotEnvFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// SetupViper creates a viper instance reading home/config.yaml, the
// QUADGOV_* environment and the command's flags. Flag names are bound
// with dashes mapped to underscores, so --grpc-addr sets grpc_addr.
func SetupViper(home string, cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(home)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	def := Default(home)
	v.SetDefault(KeyHome, home)
	v.SetDefault(KeyGRPCAddr, def.GRPCAddr)
	v.SetDefault(KeyMetricsAddr, def.MetricsAddr)
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyGenesisFile, def.GenesisFile)
	v.SetDefault(KeyStandalone, false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if cmd != nil {
		var bindErr error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	return v, nil
}

// Load resolves a Config from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Home:        v.GetString(KeyHome),
		GRPCAddr:    v.GetString(KeyGRPCAddr),
		MetricsAddr: v.GetString(KeyMetricsAddr),
		LogLevel:    v.GetString(KeyLogLevel),
		GenesisFile: v.GetString(KeyGenesisFile),
		Standalone:  v.GetBool(KeyStandalone),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks addresses and the log level. An empty metrics
// address disables the metrics endpoint.
func (c Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.GRPCAddr); err != nil {
		return fmt.Errorf("invalid grpc_addr %q: %w", c.GRPCAddr, err)
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return fmt.Errorf("invalid metrics_addr %q: %w", c.MetricsAddr, err)
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.GenesisFile == "" {
		return errors.New("genesis_file is required")
	}
	return nil
}

// GenesisPath resolves the genesis file against the home directory.
func (c Config) GenesisPath() string {
	if filepath.IsAbs(c.GenesisFile) {
		return c.GenesisFile
	}
	return filepath.Join(c.Home, c.GenesisFile)
}

// Marshal renders the config as YAML, without the home directory.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Write stores the config as home/config.yaml. It refuses to
// overwrite an existing file unless force is set.
func (c Config) Write(force bool) (string, error) {
	data, err := c.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	path := filepath.Join(c.Home, ConfigFileName)
	if err := WriteFile(path, data, force); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile writes data to path, creating parent directories. Existing
// files are kept unless force is set.
func WriteFile(path string, data []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

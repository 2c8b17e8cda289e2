package gracexit

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "GRACEXIT_"

// Log formats supported by Config.
const (
	LogFormatConsole = "console"
	LogFormatHCLog   = "hclog"
	LogFormatJSON    = "json"
)

// Config is the externally loaded configuration of a Coordinator.
type Config struct {
	// ErrorExitCode is the exit code for unexpected exits, zero keeps the current one.
	ErrorExitCode int `koanf:"error_exit_code"`
	// LogFormat selects the Logger: console, hclog or json. Empty keeps the current one.
	LogFormat string `koanf:"log_format"`
	// LogName is the logger name for the hclog and json formats.
	LogName string `koanf:"log_name"`
}

type configLoader struct {
	envPrefix string
	filePath  string
}

// ConfigOption configures LoadConfig.
type ConfigOption func(l *configLoader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) ConfigOption {
	return func(l *configLoader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML configuration file path.
func WithConfigFile(path string) ConfigOption {
	return func(l *configLoader) {
		l.filePath = path
	}
}

// LoadConfig loads the Config from the YAML file (if any) and then from environment variables,
// which take priority. Example: GRACEXIT_ERROR_EXIT_CODE=3
func LoadConfig(opts ...ConfigOption) (Config, error) {
	l := &configLoader{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(l)
	}

	k := koanf.New(".")

	if l.filePath != "" {
		if err := k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", l.filePath, err)
		}
	}

	// GRACEXIT_ERROR_EXIT_CODE -> error_exit_code
	envTransformer := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, l.envPrefix))
	}
	if err := k.Load(env.Provider(l.envPrefix, ".", envTransformer), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Configure validates the Config and applies it to the Coordinator.
func (c *Coordinator) Configure(cfg Config) error {
	var log Logger
	switch strings.ToLower(cfg.LogFormat) {
	case "":
	case LogFormatConsole:
		log = NewConsoleLogger(os.Stderr)
	case LogFormatHCLog, LogFormatJSON:
		log = NewHCLogger(hclog.New(&hclog.LoggerOptions{
			Name:       cfg.LogName,
			Output:     os.Stderr,
			JSONFormat: strings.EqualFold(cfg.LogFormat, LogFormatJSON),
		}))
	default:
		return fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}

	if cfg.ErrorExitCode != 0 {
		if err := c.SetErrorExitCode(cfg.ErrorExitCode); err != nil {
			return err
		}
	}
	if log != nil {
		return c.SetLogger(log)
	}
	return nil
}

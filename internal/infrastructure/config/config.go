// Package config provides configuration loading for the gcl-context application.
// Settings come from environment variables, with a per-project
// .gitlab-ci-local-env file supplying values the environment leaves unset.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

// EnvFileName is the per-project dotenv file read by Load.
const EnvFileName = ".gitlab-ci-local-env"

// Environment variable names.
const (
	// EnvProbe selects the probe backend (exec or gogit).
	EnvProbe = "GCL_PROBE"

	// EnvProbeTimeout bounds each probe command (Go duration syntax).
	EnvProbeTimeout = "GCL_PROBE_TIMEOUT"

	// EnvStateDir is the state directory, relative to the project directory.
	EnvStateDir = "GCL_STATE_DIR"

	// EnvLogLevel is the log level (debug, info, warn, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"

	// EnvLogFormat selects json or console log output.
	EnvLogFormat = "LOG_FORMAT"
)

// Default values.
const (
	DefaultProbe        = "exec"
	DefaultProbeTimeout = 10 * time.Second
	DefaultStateDir     = ".gitlab-ci-local"
	DefaultLogLevel     = "info"
	DefaultLogAppName   = "gcl-context"
	DefaultLogFormat    = "json"
)

// Probe backends.
const (
	ProbeExec  = "exec"
	ProbeGoGit = "gogit"
)

var validate = validator.New()

// Config holds all application configuration.
type Config struct {
	// Probe is the probe backend.
	Probe string `validate:"required,oneof=exec gogit"`

	// ProbeTimeout bounds each external command.
	ProbeTimeout time.Duration `validate:"gt=0"`

	// StateDir holds pipeline state, relative to the project directory unless absolute.
	StateDir string `validate:"required"`

	// LogLevel is the logging level.
	LogLevel string `validate:"required,oneof=debug info warn error"`

	// LogAppName is the application name for log context.
	LogAppName string `validate:"required"`

	// LogFormat is json or console.
	LogFormat string `validate:"required,oneof=json console"`
}

// StatePath resolves StateDir against projectDir.
func (c *Config) StatePath(projectDir string) string {
	if filepath.IsAbs(c.StateDir) {
		return c.StateDir
	}
	return filepath.Join(projectDir, c.StateDir)
}

// Validate checks the configuration.
// Returns domain.ErrInvalidConfig describing the first failing fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (got %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	return nil
}

// Load loads the application configuration for the project in dir.
// Environment variables take precedence over <dir>/.gitlab-ci-local-env,
// and the file is optional. Load never modifies the process environment.
// Callers that select the JSON logger export LogLevel and LogAppName
// themselves, because that logger only reads the environment.
func Load(dir string) (*Config, error) {
	fileEnv, err := readEnvFile(filepath.Join(dir, EnvFileName))
	if err != nil {
		return nil, err
	}

	get := func(key, def string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		if v := fileEnv[key]; v != "" {
			return v
		}
		return def
	}

	timeout := DefaultProbeTimeout
	if raw := get(EnvProbeTimeout, ""); raw != "" {
		timeout, err = time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, EnvProbeTimeout, err)
		}
	}

	cfg := &Config{
		Probe:        strings.ToLower(get(EnvProbe, DefaultProbe)),
		ProbeTimeout: timeout,
		StateDir:     get(EnvStateDir, DefaultStateDir),
		LogLevel:     strings.ToLower(get(EnvLogLevel, DefaultLogLevel)),
		LogAppName:   get(EnvLogAppName, DefaultLogAppName),
		LogFormat:    strings.ToLower(get(EnvLogFormat, DefaultLogFormat)),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readEnvFile parses a dotenv file. A missing file yields an empty map.
func readEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, path, err)
	}
	return values, nil
}

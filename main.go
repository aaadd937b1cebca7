// Package main is the entry point for the gcl-context CLI application.
// gcl-context derives GitLab CI predefined variables for a local repository
// by probing git and the operating system, falling back per group when a
// probe fails.
package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"

	"github.com/MyCarrier-DevOps/gcl-context/cmd"
	"github.com/MyCarrier-DevOps/gcl-context/internal/adapters/diagnostics"
	"github.com/MyCarrier-DevOps/gcl-context/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/gcl-context/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/gcl-context/internal/adapters/output"
	"github.com/MyCarrier-DevOps/gcl-context/internal/adapters/probe"
	"github.com/MyCarrier-DevOps/gcl-context/internal/adapters/store"
	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
	"github.com/MyCarrier-DevOps/gcl-context/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/gcl-context/internal/usecases"
)

func main() {
	cmd.SetDefaultDependencies(newDependencies(os.Stdout, os.Stderr))
	cmd.Execute()
}

// newDependencies wires the production dependencies.
func newDependencies(stdout, stderr io.Writer) *cmd.Dependencies {
	return &cmd.Dependencies{
		LoggerFactory: newLogger,

		ConfigLoader: func(projectDir string) (*cmd.AppConfig, error) {
			cfg, err := config.Load(projectDir)
			if err != nil {
				return nil, err
			}
			return &cmd.AppConfig{
				Probe:        cfg.Probe,
				ProbeTimeout: cfg.ProbeTimeout,
				StatePath:    cfg.StatePath(projectDir),
				LogLevel:     cfg.LogLevel,
				LogAppName:   cfg.LogAppName,
				LogFormat:    cfg.LogFormat,
			}, nil
		},

		ProberFactory: func(cfg *cmd.AppConfig, log cmd.Logger) (domain.Prober, error) {
			execProber := probe.NewExecProber(cfg.ProbeTimeout, log)
			switch cfg.Probe {
			case config.ProbeExec:
				return execProber, nil
			case config.ProbeGoGit:
				// go-git answers git probes; id -u still runs as a process
				return git.NewGoGitProber(execProber, log), nil
			default:
				return nil, newUnknownProbeError(cfg.Probe)
			}
		},

		ResolverFactory: func(prober domain.Prober, log cmd.Logger) domain.ContextResolver {
			return usecases.NewContextResolver(prober, log)
		},

		StateStoreFactory: func(cfg *cmd.AppConfig, _ string) (domain.PipelineStateStore, error) {
			return store.NewYAMLStateStore(cfg.StatePath), nil
		},

		VariablesBuilder: usecases.PredefinedVariables,

		SinkFactory: func(w io.Writer) domain.DiagnosticSink {
			return diagnostics.NewSink(w)
		},

		OutputWriterFactory: func(format string, out io.Writer) (domain.VariablesWriter, error) {
			f, err := output.ParseFormat(format)
			if err != nil {
				return nil, err
			}
			return output.NewWriterWithOutput(out, f), nil
		},

		Stdout: stdout,
		Stderr: stderr,
	}
}

// newLogger builds the application logger. Console format uses a zap
// development encoder; anything else uses the shared JSON logger, which
// only reads LOG_LEVEL and LOG_APP_NAME from the environment.
func newLogger(cfg *cmd.AppConfig) cmd.Logger {
	if cfg.LogFormat == "console" {
		consoleLog, err := logadapter.NewConsoleLoggerFromLevel(cfg.LogLevel)
		if err == nil {
			return logadapter.NewZapAdapter(consoleLog)
		}
	}

	exportErr := exportLogSettings(cfg, os.Setenv)
	log := logadapter.NewZapAdapter(logger.NewZapLoggerFromConfig())
	if exportErr != nil {
		log.Warn(context.Background(), "log settings from .gitlab-ci-local-env not applied", map[string]interface{}{
			"error": exportErr.Error(),
		})
	}
	return log
}

// exportLogSettings copies the resolved log level and app name into the
// environment so settings from .gitlab-ci-local-env reach the shared logger.
func exportLogSettings(cfg *cmd.AppConfig, setenv func(key, value string) error) error {
	return errors.Join(
		setenv(config.EnvLogLevel, cfg.LogLevel),
		setenv(config.EnvLogAppName, cfg.LogAppName),
	)
}

func newUnknownProbeError(kind string) error {
	return &unknownProbeError{kind: kind}
}

// unknownProbeError is returned when the requested probe backend does not exist.
type unknownProbeError struct {
	kind string
}

func (e *unknownProbeError) Error() string {
	return "unknown probe backend " + `"` + e.kind + `"` + ": expected exec or gogit"
}

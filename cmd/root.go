// Package cmd provides the CLI commands for gcl-context.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

// Logger defines the logging interface used by the command.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Dependencies holds all injectable dependencies for the command.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance for the loaded configuration.
	LoggerFactory func(cfg *AppConfig) Logger

	// ConfigLoader loads application configuration for a project directory.
	ConfigLoader func(projectDir string) (*AppConfig, error)

	// ProberFactory creates the Prober selected by cfg.Probe.
	ProberFactory func(cfg *AppConfig, log Logger) (domain.Prober, error)

	// ResolverFactory creates a ContextResolver on top of a Prober.
	ResolverFactory func(prober domain.Prober, log Logger) domain.ContextResolver

	// StateStoreFactory creates the pipeline state store for a project.
	StateStoreFactory func(cfg *AppConfig, projectDir string) (domain.PipelineStateStore, error)

	// VariablesBuilder maps a resolved context to predefined variables.
	VariablesBuilder func(
		repoCtx domain.RepositoryContext,
		state domain.PipelineState,
		projectDir string,
	) map[string]string

	// SinkFactory creates the sink receiving resolution warnings.
	SinkFactory func(w io.Writer) domain.DiagnosticSink

	// OutputWriterFactory creates a VariablesWriter for the requested format.
	OutputWriterFactory func(format string, out io.Writer) (domain.VariablesWriter, error)

	// Stdout is the writer for standard output (for variables).
	Stdout io.Writer

	// Stderr is the writer for standard error (for warnings/errors).
	Stderr io.Writer
}

// AppConfig holds application configuration loaded by ConfigLoader.
type AppConfig struct {
	// Probe is the probe backend (exec or gogit).
	Probe string

	// ProbeTimeout bounds each probe command.
	ProbeTimeout time.Duration

	// StatePath is the resolved pipeline state directory.
	StatePath string

	// LogLevel is the log level setting.
	LogLevel string

	// LogAppName is the application name for logging.
	LogAppName string

	// LogFormat is json or console.
	LogFormat string
}

// Command-line flags.
var (
	outputFormat string
	newPipeline  bool
	raw          bool
	probeKind    string
	verbose      bool
)

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for gcl-context.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gcl-context [path]",
		Short: "Derive GitLab CI predefined variables from a local repository",
		Long: `gcl-context derives the commit, remote and user context a local GitLab CI
job would see, by probing git and the operating system.

Each group (remote, user, commit) is resolved independently. When a probe
fails, that group falls back to placeholder values and a warning is printed
to stderr; the command still succeeds. Variables are printed to stdout.

Pipeline numbering is kept in <path>/.gitlab-ci-local/state.yml and only
advances when --new-pipeline is given.

Examples:
  # Print variables for the current directory as dotenv
  gcl-context

  # Start a new pipeline and print YAML
  gcl-context --new-pipeline -f yaml /path/to/repo

  # Print the raw repository context as JSON
  gcl-context -f json

  # Resolve with the in-process git implementation
  gcl-context --probe gogit`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args, deps)
		},
	}

	// Define flags
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "dotenv",
		"Output format: dotenv, yaml or json (json prints the raw repository context)")
	rootCmd.Flags().BoolVar(&newPipeline, "new-pipeline", false,
		"Increment the pipeline IID before printing variables")
	rootCmd.Flags().BoolVar(&raw, "raw", false,
		"Print the raw repository context instead of predefined variables")
	rootCmd.Flags().StringVar(&probeKind, "probe", "",
		"Probe backend: exec or gogit (overrides GCL_PROBE)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")

	return rootCmd
}

// runResolve resolves the repository context and writes it with injected dependencies.
func runResolve(cmd *cobra.Command, args []string, deps *Dependencies) error {
	if deps == nil {
		return errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Determine project path
	projectDir := "."
	if len(args) > 0 {
		projectDir = args[0]
	}
	if abs, err := filepath.Abs(projectDir); err == nil {
		projectDir = abs
	}

	stdout := deps.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	// Set log level based on verbose flag (best-effort)
	if verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			writeWarningf(stderr, "warning: could not set log level: %v\n", err)
		}
	}

	cfg, err := deps.ConfigLoader(projectDir)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if kind := strings.ToLower(strings.TrimSpace(probeKind)); kind != "" {
		cfg.Probe = kind
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := deps.LoggerFactory(cfg)
	defer syncLogger(log)

	log.Info(ctx, "starting gcl-context", map[string]interface{}{
		"path":         projectDir,
		"format":       outputFormat,
		"probe":        cfg.Probe,
		"new_pipeline": newPipeline,
	})

	// Resolve the writer first so a bad format fails before any state changes
	writer, err := deps.OutputWriterFactory(outputFormat, stdout)
	if err != nil {
		log.Error(ctx, "failed to create output writer", err, nil)
		return fmt.Errorf("output error: %w", err)
	}

	prober, err := deps.ProberFactory(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to create prober", err, map[string]interface{}{
			"probe": cfg.Probe,
		})
		return fmt.Errorf("probe error: %w", err)
	}

	resolver := deps.ResolverFactory(prober, log)
	repoCtx := resolver.Resolve(ctx, projectDir, deps.SinkFactory(stderr))

	if raw || strings.EqualFold(strings.TrimSpace(outputFormat), "json") {
		if err := writer.WriteContext(repoCtx); err != nil {
			log.Error(ctx, "failed to write output", err, nil)
			return fmt.Errorf("output error: %w", err)
		}
		return nil
	}

	state, err := loadState(ctx, deps, cfg, projectDir, log)
	if err != nil {
		return err
	}

	vars := deps.VariablesBuilder(repoCtx, state, projectDir)
	if err := writer.WriteVariables(vars); err != nil {
		log.Error(ctx, "failed to write output", err, nil)
		return fmt.Errorf("output error: %w", err)
	}

	log.Info(ctx, "context resolution complete", map[string]interface{}{
		"sha":          repoCtx.Commit.SHA,
		"ref_name":     repoCtx.Commit.RefName,
		"project":      repoCtx.Remote.Group + "/" + repoCtx.Remote.Project,
		"pipeline_iid": state.PipelineIID,
	})

	return nil
}

// loadState reads the pipeline state, advancing it first when --new-pipeline is set.
func loadState(
	ctx context.Context,
	deps *Dependencies,
	cfg *AppConfig,
	projectDir string,
	log Logger,
) (domain.PipelineState, error) {
	stateStore, err := deps.StateStoreFactory(cfg, projectDir)
	if err != nil {
		log.Error(ctx, "failed to open pipeline state", err, nil)
		return domain.PipelineState{}, fmt.Errorf("pipeline state error: %w", err)
	}
	defer func() {
		if closeErr := stateStore.Close(); closeErr != nil {
			log.Warn(ctx, "failed to close pipeline state", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	var state domain.PipelineState
	if newPipeline {
		state, err = stateStore.IncrementPipelineIID(ctx)
	} else {
		state, err = stateStore.Load(ctx)
	}
	if err != nil {
		log.Error(ctx, "failed to read pipeline state", err, map[string]interface{}{
			"path": cfg.StatePath,
		})
		if errors.Is(err, domain.ErrStateCorrupt) {
			return domain.PipelineState{}, fmt.Errorf("pipeline state is corrupt; delete %s to reset it: %w",
				cfg.StatePath, err)
		}
		return domain.PipelineState{}, fmt.Errorf("pipeline state error: %w", err)
	}
	return state, nil
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// syncLogger flushes loggers that buffer output. Sync on a terminal
// commonly fails with EINVAL, so the error is dropped.
func syncLogger(log Logger) {
	if s, ok := log.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		// Intentionally ignored: no recovery action for failed stderr writes
		return
	}
}

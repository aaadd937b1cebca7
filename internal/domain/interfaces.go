// Package domain defines the core business entities and interfaces for gcl-context.
// This package contains no external dependencies and represents the innermost layer
// of the CLEAN architecture.
package domain

import (
	"context"
	"errors"
	"strings"
)

// Probe errors. Probers wrap one of the first two; the resolver classifies
// every failure into ProbeAbsent or ProbeMalformed.
var (
	// ErrCommandNotFound indicates the executable could not be started.
	ErrCommandNotFound = errors.New("command not found")

	// ErrCommandFailed indicates the command ran but exited non-zero.
	ErrCommandFailed = errors.New("command exited with non-zero status")

	// ErrProbeAbsent indicates a value could not be obtained from the toolchain.
	ErrProbeAbsent = errors.New("probe produced no data")

	// ErrProbeMalformed indicates the toolchain output did not have the expected shape.
	ErrProbeMalformed = errors.New("probe output did not match expected format")
)

// Application errors outside the resolver.
var (
	// ErrInvalidConfig indicates the loaded configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStateCorrupt indicates the pipeline state file could not be decoded.
	ErrStateCorrupt = errors.New("pipeline state file is corrupt")

	// ErrUnknownFormat indicates an unsupported output format was requested.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrUnrepresentable indicates a value has no encoding in the requested format.
	ErrUnrepresentable = errors.New("value cannot be represented in output format")
)

// Command is an external command line run by a Prober.
type Command struct {
	Name string
	Args []string
}

// String renders the command the way it would be typed in a shell.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Commands probed while resolving a RepositoryContext.
var (
	CmdGitVersion   = Command{Name: "git", Args: []string{"--version"}}
	CmdGitRemote    = Command{Name: "git", Args: []string{"remote", "-v"}}
	CmdGitLastLog   = Command{Name: "git", Args: []string{"log", "-1", "--pretty=format:%h %H %D"}}
	CmdGitUserName  = Command{Name: "git", Args: []string{"config", "user.name"}}
	CmdGitUserEmail = Command{Name: "git", Args: []string{"config", "user.email"}}
	CmdUserID       = Command{Name: "id", Args: []string{"-u"}}
)

// Prober runs a single external command and returns its standard output.
// Implementations return an error wrapping ErrCommandNotFound when the
// executable is absent and ErrCommandFailed when it exits non-zero.
// Timeouts are the Prober's responsibility.
type Prober interface {
	Probe(ctx context.Context, dir string, cmd Command) (string, error)
}

// DiagnosticSink accepts ordered, non-fatal warning lines.
type DiagnosticSink interface {
	Warn(line string)
}

// ContextResolver resolves the repository context of a working directory.
type ContextResolver interface {
	// Resolve never fails; degraded groups are replaced by fallback values
	// and reported to sink.
	Resolve(ctx context.Context, dir string, sink DiagnosticSink) RepositoryContext
}

// PipelineStateStore persists the pipeline counter of a project.
type PipelineStateStore interface {
	// Load returns the current state, or the zero state if none was saved yet.
	Load(ctx context.Context) (PipelineState, error)

	// IncrementPipelineIID bumps the pipeline IID and persists it.
	IncrementPipelineIID(ctx context.Context) (PipelineState, error)

	// Close releases any resources held by the store.
	Close() error
}

// VariablesWriter writes resolved output to a destination.
type VariablesWriter interface {
	// WriteVariables writes predefined variables in the writer's format.
	WriteVariables(vars map[string]string) error

	// WriteContext writes the raw repository context.
	WriteContext(repoCtx RepositoryContext) error
}

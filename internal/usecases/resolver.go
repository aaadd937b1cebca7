// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to fulfill use cases.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

// Logger defines the logging interface required by the resolver.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// ContextResolver derives the repository context of a working directory by
// probing the local git toolchain. Remote, user and commit data are resolved
// independently; a group that cannot be resolved is replaced by its fallback
// values as a whole and reported to the diagnostic sink.
type ContextResolver struct {
	prober domain.Prober
	logger Logger
}

// NewContextResolver creates a new ContextResolver with the given dependencies.
func NewContextResolver(prober domain.Prober, log Logger) *ContextResolver {
	return &ContextResolver{
		prober: prober,
		logger: log,
	}
}

// Resolve returns the repository context of dir. It never fails: when git is
// not available at all the fully fallback context is returned after a single
// warning, otherwise each degraded group contributes one warning, in the order
// remote, user, commit.
func (r *ContextResolver) Resolve(ctx context.Context, dir string, sink domain.DiagnosticSink) domain.RepositoryContext {
	if sink == nil {
		sink = discardSink{}
	}

	r.logger.Info(ctx, "starting repository context resolution", map[string]interface{}{
		"dir": dir,
	})

	if !r.isAvailable(ctx, dir) {
		sink.Warn(domain.WarnGitUnavailable)
		r.logger.Warn(ctx, "git is not available; using fallback context", map[string]interface{}{
			"dir": dir,
		})
		return domain.FallbackContext()
	}

	remote, err := r.resolveRemote(ctx, dir)
	if err != nil {
		remote = domain.FallbackRemote
		r.degrade(ctx, sink, "remote", err, domain.WarnRemoteAbsent, domain.WarnRemoteInvalid)
	}

	user, err := r.resolveUser(ctx, dir)
	if err != nil {
		user = domain.FallbackUser
		r.degrade(ctx, sink, "user", err, domain.WarnUserAbsent, domain.WarnUserAbsent)
	}

	commit, err := r.resolveCommit(ctx, dir)
	if err != nil {
		commit = domain.FallbackCommit
		r.degrade(ctx, sink, "commit", err, domain.WarnCommitAbsent, domain.WarnCommitInvalid)
	}

	repoCtx := domain.RepositoryContext{
		Commit: commit,
		Remote: remote,
		User:   user,
	}

	r.logger.Info(ctx, "resolved repository context", map[string]interface{}{
		"sha":      repoCtx.Commit.SHA,
		"ref_name": repoCtx.Commit.RefName,
		"domain":   repoCtx.Remote.Domain,
		"group":    repoCtx.Remote.Group,
		"project":  repoCtx.Remote.Project,
		"login":    repoCtx.User.Login,
	})

	return repoCtx
}

// degrade reports a group fallback. Malformed output gets its own wording so
// "not installed or configured" stays distinguishable from "unexpected format".
func (r *ContextResolver) degrade(
	ctx context.Context,
	sink domain.DiagnosticSink,
	group string,
	err error,
	absentLine, malformedLine string,
) {
	line := absentLine
	if errors.Is(err, domain.ErrProbeMalformed) {
		line = malformedLine
	}
	sink.Warn(line)

	r.logger.Warn(ctx, "using fallback "+group+" data", map[string]interface{}{
		"group": group,
		"error": err.Error(),
	})
}

// probe runs cmd and converts any failure into domain.ErrProbeAbsent.
func (r *ContextResolver) probe(ctx context.Context, dir string, cmd domain.Command) (string, error) {
	out, err := r.prober.Probe(ctx, dir, cmd)
	if err != nil {
		r.logger.Debug(ctx, "probe failed", map[string]interface{}{
			"command": cmd.String(),
			"error":   err.Error(),
		})
		return "", fmt.Errorf("%w: %s: %w", domain.ErrProbeAbsent, cmd, err)
	}

	r.logger.Debug(ctx, "probe succeeded", map[string]interface{}{
		"command": cmd.String(),
		"bytes":   len(out),
	})
	return out, nil
}

// probeValue runs cmd and returns its trimmed output; empty output counts as absent.
func (r *ContextResolver) probeValue(ctx context.Context, dir string, cmd domain.Command) (string, error) {
	out, err := r.probe(ctx, dir, cmd)
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(out)
	if value == "" {
		return "", fmt.Errorf("%w: %s: empty output", domain.ErrProbeAbsent, cmd)
	}
	return value, nil
}

// firstLine returns the first line of out with surrounding whitespace removed.
func firstLine(out string) string {
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(line)
}

type discardSink struct{}

func (discardSink) Warn(string) {}

// Package git provides adapters for interacting with local Git repositories.
// This package implements domain.Prober for git commands using go-git/v5, so a
// repository context can be resolved on machines without a git binary.
package git

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

// versionOutput is reported for `git --version`.
const versionOutput = "git version 2.0.0 (go-git/v5)\n"

// shortHashLength matches git's default abbreviation.
const shortHashLength = 7

// Logger defines the logging interface for the git adapter.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

// GoGitProber implements domain.Prober. It answers the git commands the
// resolver probes with output shaped like the git CLI's, reading the
// repository with go-git. Other commands are delegated to next.
type GoGitProber struct {
	next   domain.Prober
	logger Logger
}

// NewGoGitProber creates a new GoGitProber. next handles non-git commands and
// may be nil, in which case they report domain.ErrCommandNotFound.
func NewGoGitProber(next domain.Prober, log Logger) *GoGitProber {
	return &GoGitProber{
		next:   next,
		logger: log,
	}
}

// Probe answers cmd for the repository containing dir.
func (p *GoGitProber) Probe(ctx context.Context, dir string, cmd domain.Command) (string, error) {
	if cmd.Name != "git" {
		if p.next == nil {
			return "", fmt.Errorf("%w: %s", domain.ErrCommandNotFound, cmd.Name)
		}
		return p.next.Probe(ctx, dir, cmd)
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrCommandFailed, cmd, err)
	}

	var (
		out string
		err error
	)
	switch cmd.String() {
	case domain.CmdGitVersion.String():
		out = versionOutput
	case domain.CmdGitRemote.String():
		out, err = p.remotes(dir)
	case domain.CmdGitLastLog.String():
		out, err = p.lastCommit(dir)
	case domain.CmdGitUserName.String():
		out, err = p.userConfig(dir, "user.name", func(c *config.Config) string { return c.User.Name })
	case domain.CmdGitUserEmail.String():
		out, err = p.userConfig(dir, "user.email", func(c *config.Config) string { return c.User.Email })
	default:
		err = fmt.Errorf("%w: unsupported git command %q", domain.ErrCommandNotFound, cmd)
	}

	p.logger.Debug(ctx, "answered git probe in-process", map[string]interface{}{
		"command": cmd.String(),
		"dir":     dir,
		"ok":      err == nil,
	})
	return out, err
}

// open opens the repository containing dir.
func open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: not a git repository: %s: %w", domain.ErrCommandFailed, dir, err)
	}
	return repo, nil
}

// remotes renders the remotes like `git remote -v`, ordered by name.
func (p *GoGitProber) remotes(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return "", fmt.Errorf("%w: failed to list remotes: %w", domain.ErrCommandFailed, err)
	}
	sort.Slice(remotes, func(i, j int) bool {
		return remotes[i].Config().Name < remotes[j].Config().Name
	})

	var b strings.Builder
	for _, remote := range remotes {
		cfg := remote.Config()
		if len(cfg.URLs) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s\t%s (fetch)\n", cfg.Name, cfg.URLs[0])
		for _, url := range cfg.URLs {
			fmt.Fprintf(&b, "%s\t%s (push)\n", cfg.Name, url)
		}
	}
	return b.String(), nil
}

// lastCommit renders HEAD like `git log -1 --pretty=format:%h %H %D`.
func (p *GoGitProber) lastCommit(dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("%w: failed to get HEAD: %w", domain.ErrCommandFailed, err)
	}

	decorations, err := decorate(repo, head.Hash())
	if err != nil {
		return "", fmt.Errorf("%w: failed to decorate HEAD: %w", domain.ErrCommandFailed, err)
	}

	sha := head.Hash().String()
	return fmt.Sprintf("%s %s %s", sha[:shortHashLength], sha, strings.Join(decorations, ", ")), nil
}

// decorate lists the refs pointing at head the way %D does: the grafted
// marker of a shallow boundary, HEAD (with its branch when attached), then
// the other refs at head in git's order.
func decorate(repo *git.Repository, head plumbing.Hash) ([]string, error) {
	var decorations []string

	if shallow, err := repo.Storer.Shallow(); err == nil && slices.Contains(shallow, head) {
		decorations = append(decorations, "grafted")
	}

	headRef, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return nil, err
	}

	var current plumbing.ReferenceName
	if headRef.Type() == plumbing.SymbolicReference && headRef.Target().IsBranch() {
		current = headRef.Target()
		decorations = append(decorations, "HEAD -> "+current.Short())
	} else {
		decorations = append(decorations, "HEAD")
	}

	refs, err := repo.References()
	if err != nil {
		return nil, err
	}
	defer refs.Close()

	var names []plumbing.ReferenceName
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		if name == plumbing.HEAD || name == current {
			return nil
		}
		if !name.IsTag() && !name.IsBranch() && !name.IsRemote() {
			return nil
		}
		if target, ok := peel(repo, ref); ok && target == head {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// git lists decorations by full ref name, descending: tags, then
	// remote-tracking refs, then local branches.
	sort.Slice(names, func(i, j int) bool { return names[i] > names[j] })
	for _, name := range names {
		if name.IsTag() {
			decorations = append(decorations, "tag: "+name.Short())
			continue
		}
		decorations = append(decorations, name.Short())
	}
	return decorations, nil
}

// peel returns the commit a reference ultimately points at, following
// symbolic references and annotated tags.
func peel(repo *git.Repository, ref *plumbing.Reference) (plumbing.Hash, bool) {
	if ref.Type() == plumbing.SymbolicReference {
		resolved, err := repo.Reference(ref.Name(), true)
		if err != nil {
			return plumbing.ZeroHash, false
		}
		ref = resolved
	}

	hash := ref.Hash()
	if ref.Name().IsTag() {
		if tag, err := repo.TagObject(hash); err == nil {
			return tag.Target, true
		}
	}
	return hash, true
}

// userConfig reads a user.* value like `git config`, which merges the
// repository, global and system configuration. Outside a repository only the
// global configuration is consulted. An unset value fails like git does.
func (p *GoGitProber) userConfig(dir, key string, field func(*config.Config) string) (string, error) {
	var (
		cfg *config.Config
		err error
	)
	if repo, openErr := open(dir); openErr == nil {
		cfg, err = repo.ConfigScoped(config.SystemScope)
	} else {
		cfg, err = config.LoadConfig(config.GlobalScope)
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to read git config: %w", domain.ErrCommandFailed, err)
	}

	value := field(cfg)
	if value == "" {
		return "", fmt.Errorf("%w: %s is not set", domain.ErrCommandFailed, key)
	}
	return value + "\n", nil
}

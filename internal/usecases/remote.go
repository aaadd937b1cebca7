package usecases

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

// Regular expressions for splitting a remote URL into host and path.
var (
	// urlRemotePattern matches URL-style remotes like:
	// https://gitlab.com/group/project.git
	// ssh://git@gitlab.com:2222/group/sub/project.git
	urlRemotePattern = regexp.MustCompile(`^(?:ssh|git|git\+ssh|https?)://(?:[^@/]+@)?([^:/]+)(?::\d+)?/(.+)$`)

	// scpRemotePattern matches SSH scp-like remotes like:
	// git@gitlab.com:group/project.git
	scpRemotePattern = regexp.MustCompile(`^(?:[^@/]+@)?([^:/]+):(.+)$`)
)

// resolveRemote reads the first entry of `git remote -v`.
func (r *ContextResolver) resolveRemote(ctx context.Context, dir string) (domain.RemoteData, error) {
	out, err := r.probe(ctx, dir, domain.CmdGitRemote)
	if err != nil {
		return domain.RemoteData{}, err
	}
	return parseRemote(out)
}

// parseRemote parses a `git remote -v` listing. Only the first line is
// considered; it must look like "<name> <url> (fetch)". The last path segment
// of the URL minus ".git" is the project, everything before it the group.
func parseRemote(out string) (domain.RemoteData, error) {
	fields := strings.Fields(firstLine(out))
	if len(fields) < 2 {
		return domain.RemoteData{}, fmt.Errorf("%w: remote line %q", domain.ErrProbeMalformed, firstLine(out))
	}

	host, path, ok := splitRemoteURL(fields[1])
	if !ok {
		return domain.RemoteData{}, fmt.Errorf("%w: unrecognized remote URL %q", domain.ErrProbeMalformed, fields[1])
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	segments := strings.Split(path, "/")
	if len(segments) < 2 {
		return domain.RemoteData{}, fmt.Errorf("%w: remote path %q has no group", domain.ErrProbeMalformed, path)
	}
	for _, segment := range segments {
		if segment == "" {
			return domain.RemoteData{}, fmt.Errorf("%w: remote path %q has an empty segment", domain.ErrProbeMalformed, path)
		}
	}

	last := len(segments) - 1
	return domain.RemoteData{
		Domain:  host,
		Group:   strings.Join(segments[:last], "/"),
		Project: segments[last],
	}, nil
}

// splitRemoteURL returns the host and path of a URL-style or scp-like remote.
func splitRemoteURL(url string) (string, string, bool) {
	if matches := urlRemotePattern.FindStringSubmatch(url); len(matches) == 3 {
		return matches[1], matches[2], true
	}
	if strings.Contains(url, "://") {
		return "", "", false
	}
	if matches := scpRemotePattern.FindStringSubmatch(url); len(matches) == 3 {
		return matches[1], matches[2], true
	}
	return "", "", false
}

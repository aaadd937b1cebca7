package usecases

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

var (
	shortSHAPattern = regexp.MustCompile(`^[0-9a-f]{4,40}$`)
	fullSHAPattern  = regexp.MustCompile(`^[0-9a-f]{40}$`)
)

// decorationKind is the shape of a single ref marker in a %D decoration.
type decorationKind int

const (
	// decorationRef is any other ref, e.g. "origin/master" or "pull/3/merge".
	decorationRef decorationKind = iota
	// decorationHead is a bare "HEAD" (detached).
	decorationHead
	// decorationHeadArrow is "HEAD -> <branch>".
	decorationHeadArrow
	// decorationTag is "tag: <name>".
	decorationTag
	// decorationGrafted marks the boundary commit of a shallow clone.
	decorationGrafted
)

type decoration struct {
	kind decorationKind
	name string
}

// classifyDecoration maps one comma-separated token to its shape.
func classifyDecoration(token string) decoration {
	switch {
	case token == "HEAD":
		return decoration{kind: decorationHead}
	case token == "grafted":
		return decoration{kind: decorationGrafted}
	case strings.HasPrefix(token, "HEAD -> "):
		return decoration{kind: decorationHeadArrow, name: strings.TrimSpace(strings.TrimPrefix(token, "HEAD -> "))}
	case strings.HasPrefix(token, "tag: "):
		return decoration{kind: decorationTag, name: strings.TrimSpace(strings.TrimPrefix(token, "tag: "))}
	default:
		return decoration{kind: decorationRef, name: token}
	}
}

// parseDecorations splits a %D decoration into classified tokens.
func parseDecorations(raw string) []decoration {
	var decorations []decoration
	for _, token := range strings.Split(raw, ", ") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		decorations = append(decorations, classifyDecoration(token))
	}
	return decorations
}

// refNameFromDecorations picks the ref name, in priority order:
// the branch HEAD points to, a tag on a detached HEAD, then the first other
// ref on a detached HEAD. Decorations without any HEAD marker are invalid.
func refNameFromDecorations(decorations []decoration) (string, bool) {
	var hasHead bool
	var tag, alias string

	for _, d := range decorations {
		switch d.kind {
		case decorationHeadArrow:
			if d.name != "" {
				return d.name, true
			}
		case decorationHead:
			hasHead = true
		case decorationTag:
			if tag == "" {
				tag = d.name
			}
		case decorationRef:
			if alias == "" {
				alias = d.name
			}
		case decorationGrafted:
		}
	}

	switch {
	case !hasHead:
		return "", false
	case tag != "":
		return tag, true
	case alias != "":
		return alias, true
	default:
		return "", false
	}
}

// resolveCommit reads the most recent commit of dir.
func (r *ContextResolver) resolveCommit(ctx context.Context, dir string) (domain.CommitData, error) {
	out, err := r.probe(ctx, dir, domain.CmdGitLastLog)
	if err != nil {
		return domain.CommitData{}, err
	}
	return parseCommit(out)
}

// parseCommit parses "<short> <full> <decoration>" as printed by
// `git log -1 --pretty=format:%h %H %D`.
func parseCommit(out string) (domain.CommitData, error) {
	line := firstLine(out)

	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return domain.CommitData{}, fmt.Errorf("%w: log line %q", domain.ErrProbeMalformed, line)
	}
	shortSHA, sha, rawDecorations := parts[0], parts[1], parts[2]

	if !shortSHAPattern.MatchString(shortSHA) || !fullSHAPattern.MatchString(sha) || !strings.HasPrefix(sha, shortSHA) {
		return domain.CommitData{}, fmt.Errorf("%w: log line %q has no commit hashes", domain.ErrProbeMalformed, line)
	}

	refName, ok := refNameFromDecorations(parseDecorations(rawDecorations))
	if !ok {
		return domain.CommitData{}, fmt.Errorf("%w: unrecognized decoration %q", domain.ErrProbeMalformed, rawDecorations)
	}

	return domain.CommitData{
		SHA:      sha,
		ShortSHA: shortSHA,
		RefName:  refName,
	}, nil
}

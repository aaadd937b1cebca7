package usecases

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

// maxSlugLength is the byte limit GitLab applies to *_SLUG variables.
const maxSlugLength = 63

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// PredefinedVariables maps a resolved repository context to the predefined
// variables a job sees when running under the hosted provider.
func PredefinedVariables(
	repoCtx domain.RepositoryContext,
	state domain.PipelineState,
	projectDir string,
) map[string]string {
	projectPath := repoCtx.Remote.Group + "/" + repoCtx.Remote.Project
	serverURL := "https://" + repoCtx.Remote.Domain

	return map[string]string{
		"CI":        "true",
		"GITLAB_CI": "false",

		"CI_SERVER_HOST": repoCtx.Remote.Domain,
		"CI_SERVER_URL":  serverURL,

		"CI_PROJECT_NAME":      repoCtx.Remote.Project,
		"CI_PROJECT_NAMESPACE": repoCtx.Remote.Group,
		"CI_PROJECT_PATH":      projectPath,
		"CI_PROJECT_PATH_SLUG": Slugify(projectPath),
		"CI_PROJECT_URL":       serverURL + "/" + projectPath,
		"CI_PROJECT_DIR":       projectDir,

		"CI_COMMIT_SHA":       repoCtx.Commit.SHA,
		"CI_COMMIT_SHORT_SHA": repoCtx.Commit.ShortSHA,
		"CI_COMMIT_REF_NAME":  repoCtx.Commit.RefName,
		"CI_COMMIT_REF_SLUG":  Slugify(repoCtx.Commit.RefName),
		"CI_COMMIT_BRANCH":    repoCtx.Commit.RefName,
		"CI_DEFAULT_BRANCH":   domain.DefaultBranch,

		"CI_PIPELINE_IID": strconv.Itoa(state.PipelineIID),
		"CI_PIPELINE_ID":  strconv.Itoa(state.PipelineIID + domain.PipelineIDOffset),

		"GITLAB_USER_ID":    repoCtx.User.ID,
		"GITLAB_USER_LOGIN": repoCtx.User.Login,
		"GITLAB_USER_NAME":  repoCtx.User.Name,
		"GITLAB_USER_EMAIL": repoCtx.User.Email,
	}
}

// Slugify lowercases s, replaces every run of characters outside [a-z0-9]
// with "-", truncates to 63 bytes and trims leading and trailing dashes.
func Slugify(s string) string {
	slug := slugInvalidChars.ReplaceAllString(strings.ToLower(s), "-")
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
	}
	return strings.Trim(slug, "-")
}

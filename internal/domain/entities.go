// Package domain defines the core business entities and interfaces for gcl-context.
package domain

import "strings"

// CommitData describes the most recent commit of the working directory.
// JSON keys are the predefined variable names job scripts reference directly.
type CommitData struct {
	// SHA is the full 40-character commit SHA.
	SHA string `json:"SHA" yaml:"SHA"`

	// ShortSHA is the abbreviated commit SHA.
	ShortSHA string `json:"SHORT_SHA" yaml:"SHORT_SHA"`

	// RefName is the branch, tag or ref the commit was resolved from.
	RefName string `json:"REF_NAME" yaml:"REF_NAME"`
}

// RemoteData describes the remote the repository was cloned from.
type RemoteData struct {
	// Domain is the remote host, e.g. gitlab.com.
	Domain string `json:"domain" yaml:"domain"`

	// Group is the namespace path between host and project, slash-joined
	// when the remote has nested groups.
	Group string `json:"group" yaml:"group"`

	// Project is the last path segment without a .git suffix.
	Project string `json:"project" yaml:"project"`
}

// UserData describes the identity the pipeline runs as.
type UserData struct {
	ID    string `json:"GITLAB_USER_ID" yaml:"GITLAB_USER_ID"`
	Login string `json:"GITLAB_USER_LOGIN" yaml:"GITLAB_USER_LOGIN"`
	Name  string `json:"GITLAB_USER_NAME" yaml:"GITLAB_USER_NAME"`
	Email string `json:"GITLAB_USER_EMAIL" yaml:"GITLAB_USER_EMAIL"`
}

// RepositoryContext is the resolved repository context for one pipeline run.
// Every field is always populated, either from a probe or from a fallback constant.
type RepositoryContext struct {
	Commit CommitData `json:"commit" yaml:"commit"`
	Remote RemoteData `json:"remote" yaml:"remote"`
	User   UserData   `json:"user" yaml:"user"`
}

// Fallback values used when live data cannot be obtained.
var (
	FallbackCommit = CommitData{
		SHA:      strings.Repeat("0", 40),
		ShortSHA: strings.Repeat("0", 8),
		RefName:  "main",
	}

	FallbackRemote = RemoteData{
		Domain:  "fallback.domain",
		Group:   "fallback.group",
		Project: "fallback.project",
	}

	FallbackUser = UserData{
		ID:    "1000",
		Login: "local",
		Name:  "Bob Local",
		Email: "local@gitlab.com",
	}
)

// FallbackContext returns a RepositoryContext built entirely from fallback values.
func FallbackContext() RepositoryContext {
	return RepositoryContext{
		Commit: FallbackCommit,
		Remote: FallbackRemote,
		User:   FallbackUser,
	}
}

// Warning lines reported to the diagnostic sink when a group falls back.
const (
	WarnGitUnavailable = "Git not available using fallback"
	WarnRemoteAbsent   = "Using fallback git remote data"
	WarnRemoteInvalid  = "git remote -v didn't provide valid matches"
	WarnUserAbsent     = "Using fallback git user data"
	WarnCommitAbsent   = "Using fallback git commit data"
	WarnCommitInvalid  = "git log -1 didn't provide valid matches"
)

// PipelineState is the persisted per-project pipeline counter.
type PipelineState struct {
	// PipelineIID is the project-level pipeline number of the last run.
	PipelineIID int `yaml:"pipelineIid"`
}

// PipelineIDOffset is added to the IID to derive CI_PIPELINE_ID.
const PipelineIDOffset = 1000

// DefaultBranch is exposed as CI_DEFAULT_BRANCH.
const DefaultBranch = "main"

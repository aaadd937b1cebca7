package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/gcl-context/cmd"
	"github.com/MyCarrier-DevOps/gcl-context/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/gcl-context/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/gcl-context/internal/adapters/output"
	"github.com/MyCarrier-DevOps/gcl-context/internal/adapters/probe"
	"github.com/MyCarrier-DevOps/gcl-context/internal/adapters/store"
	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
	"github.com/MyCarrier-DevOps/gcl-context/internal/infrastructure/config"
)

func TestNewUnknownProbeError(t *testing.T) {
	err := newUnknownProbeError("libgit2")

	assert.NotNil(t, err)
	assert.IsType(t, &unknownProbeError{}, err)
}

func TestUnknownProbeError_Error(t *testing.T) {
	tests := []struct {
		name string
		kind string
		want string
	}{
		{
			name: "named backend",
			kind: "libgit2",
			want: `unknown probe backend "libgit2": expected exec or gogit`,
		},
		{
			name: "empty backend",
			kind: "",
			want: `unknown probe backend "": expected exec or gogit`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &unknownProbeError{kind: tt.kind}
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func testAppConfig(probeKind string) *cmd.AppConfig {
	return &cmd.AppConfig{
		Probe:        probeKind,
		ProbeTimeout: time.Second,
		StatePath:    "/work/.gitlab-ci-local",
		LogLevel:     "error",
		LogAppName:   "gcl-context",
		LogFormat:    "console",
	}
}

func TestNewDependencies_ProberFactory(t *testing.T) {
	deps := newDependencies(&bytes.Buffer{}, &bytes.Buffer{})
	log := newLogger(testAppConfig(config.ProbeExec))

	execProber, err := deps.ProberFactory(testAppConfig(config.ProbeExec), log)
	require.NoError(t, err)
	assert.IsType(t, &probe.ExecProber{}, execProber)

	goGitProber, err := deps.ProberFactory(testAppConfig(config.ProbeGoGit), log)
	require.NoError(t, err)
	assert.IsType(t, &git.GoGitProber{}, goGitProber)

	_, err = deps.ProberFactory(testAppConfig("svn"), log)
	require.Error(t, err)
	assert.IsType(t, &unknownProbeError{}, err)
}

func TestNewDependencies_OutputWriterFactory(t *testing.T) {
	deps := newDependencies(&bytes.Buffer{}, &bytes.Buffer{})

	writer, err := deps.OutputWriterFactory("yaml", &bytes.Buffer{})
	require.NoError(t, err)
	assert.IsType(t, &output.Writer{}, writer)

	_, err = deps.OutputWriterFactory("toml", &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownFormat)
}

func TestNewDependencies_StateStoreFactory(t *testing.T) {
	deps := newDependencies(&bytes.Buffer{}, &bytes.Buffer{})

	s, err := deps.StateStoreFactory(testAppConfig(config.ProbeExec), "/work")
	require.NoError(t, err)
	require.IsType(t, &store.YAMLStateStore{}, s)
	assert.Equal(t, filepath.Join("/work/.gitlab-ci-local", store.StateFileName), s.(*store.YAMLStateStore).Path())
}

func TestNewDependencies_ConfigLoader(t *testing.T) {
	for _, key := range []string{
		config.EnvProbe, config.EnvProbeTimeout, config.EnvStateDir,
		config.EnvLogLevel, config.EnvLogAppName, config.EnvLogFormat,
	} {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvStateDir, ".state")
	projectDir := t.TempDir()
	deps := newDependencies(&bytes.Buffer{}, &bytes.Buffer{})

	cfg, err := deps.ConfigLoader(projectDir)

	require.NoError(t, err)
	assert.Equal(t, config.ProbeExec, cfg.Probe)
	assert.Equal(t, config.DefaultProbeTimeout, cfg.ProbeTimeout)
	assert.Equal(t, filepath.Join(projectDir, ".state"), cfg.StatePath)
}

func TestExportLogSettings(t *testing.T) {
	t.Run("sets level and app name", func(t *testing.T) {
		t.Setenv(config.EnvLogLevel, "")
		t.Setenv(config.EnvLogAppName, "")
		cfg := testAppConfig(config.ProbeExec)
		cfg.LogLevel = "warn"

		require.NoError(t, exportLogSettings(cfg, os.Setenv))

		assert.Equal(t, "warn", os.Getenv(config.EnvLogLevel))
		assert.Equal(t, "gcl-context", os.Getenv(config.EnvLogAppName))
	})

	t.Run("reports every failed key", func(t *testing.T) {
		var attempted []string
		failing := func(key, _ string) error {
			attempted = append(attempted, key)
			return errors.New("setenv " + key + ": invalid argument")
		}

		err := exportLogSettings(testAppConfig(config.ProbeExec), failing)

		require.Error(t, err)
		assert.Equal(t, []string{config.EnvLogLevel, config.EnvLogAppName}, attempted)
		assert.Contains(t, err.Error(), config.EnvLogLevel)
		assert.Contains(t, err.Error(), config.EnvLogAppName)
	})
}

func TestNewLogger_Console(t *testing.T) {
	log := newLogger(testAppConfig(config.ProbeExec))

	require.NotNil(t, log)
	assert.IsType(t, &logadapter.ZapAdapter{}, log)
}

// initRepo builds a repository with one commit on master and an origin remote.
func initRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	cfg, err := repo.Config()
	require.NoError(t, err)
	cfg.User.Name = "Testersen"
	cfg.User.Email = "test@test.com"
	require.NoError(t, repo.SetConfig(cfg))

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{"git@gitlab.com:gcl/test-project.git"},
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# test\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	hash, err := wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Testersen", Email: "test@test.com", When: time.Now()},
	})
	require.NoError(t, err)

	return dir, hash.String()
}

func TestRun_GoGitEndToEnd(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv(config.EnvProbe, "")
	t.Setenv(config.EnvProbeTimeout, "")
	t.Setenv(config.EnvStateDir, "")
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvLogAppName, "")
	t.Setenv(config.EnvLogFormat, "console")
	t.Setenv("CLICOLOR_FORCE", "0")

	dir, sha := initRepo(t)
	var stdout, stderr bytes.Buffer
	rootCmd := cmd.NewRootCmdWithDeps(newDependencies(&stdout, &stderr))
	rootCmd.SetArgs([]string{"--probe", "gogit", "--new-pipeline", "-f", "yaml", dir})

	require.NoError(t, rootCmd.Execute())

	var vars map[string]string
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &vars))
	assert.Equal(t, sha, vars["CI_COMMIT_SHA"])
	assert.Equal(t, sha[:7], vars["CI_COMMIT_SHORT_SHA"])
	assert.Equal(t, "master", vars["CI_COMMIT_REF_NAME"])
	assert.Equal(t, "gitlab.com", vars["CI_SERVER_HOST"])
	assert.Equal(t, "gcl/test-project", vars["CI_PROJECT_PATH"])
	assert.Equal(t, "1", vars["CI_PIPELINE_IID"])
	assert.NotContains(t, stderr.String(), domain.WarnRemoteAbsent)
	assert.NotContains(t, stderr.String(), domain.WarnCommitAbsent)

	_, err := os.Stat(filepath.Join(dir, config.DefaultStateDir, store.StateFileName))
	assert.NoError(t, err, "new pipeline should persist state")
}

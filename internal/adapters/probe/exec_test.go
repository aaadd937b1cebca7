package probe

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// testLogger is a minimal logger for testing that doesn't output anything.
type testLogger struct{}

func (l *testLogger) Debug(_ context.Context, _ string, _ map[string]interface{}) {}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func shell(script string) domain.Command {
	return domain.Command{Name: "sh", Args: []string{"-c", script}}
}

func TestNewExecProber_DefaultTimeout(t *testing.T) {
	p := NewExecProber(0, &testLogger{})
	assert.Equal(t, DefaultTimeout, p.timeout)

	p = NewExecProber(time.Second, &testLogger{})
	assert.Equal(t, time.Second, p.timeout)
}

func TestExecProber_Probe_Stdout(t *testing.T) {
	requireShell(t)
	p := NewExecProber(5*time.Second, &testLogger{})

	out, err := p.Probe(context.Background(), t.TempDir(), shell("printf 'hello\\n'; echo ignored >&2"))

	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestExecProber_Probe_RunsInDir(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	p := NewExecProber(5*time.Second, &testLogger{})

	out, err := p.Probe(context.Background(), dir, shell("pwd"))

	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExecProber_Probe_Errors(t *testing.T) {
	requireShell(t)

	tests := []struct {
		name    string
		dir     string
		cmd     domain.Command
		timeout time.Duration
		wantErr error
	}{
		{
			name:    "missing executable",
			cmd:     domain.Command{Name: "gcl-context-missing-binary", Args: []string{"--version"}},
			wantErr: domain.ErrCommandNotFound,
		},
		{
			name:    "non-zero exit",
			cmd:     shell("echo boom >&2; exit 3"),
			wantErr: domain.ErrCommandFailed,
		},
		{
			name:    "timeout",
			cmd:     shell("exec sleep 5"),
			timeout: 50 * time.Millisecond,
			wantErr: domain.ErrCommandFailed,
		},
		{
			name:    "missing working directory",
			dir:     filepath.Join("nonexistent", "gcl-context", "dir"),
			cmd:     shell("true"),
			wantErr: domain.ErrCommandNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeout := tt.timeout
			if timeout == 0 {
				timeout = 5 * time.Second
			}
			dir := tt.dir
			if dir == "" {
				dir = t.TempDir()
			}
			p := NewExecProber(timeout, &testLogger{})

			out, err := p.Probe(context.Background(), dir, tt.cmd)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, out)
		})
	}
}

func TestExecProber_Probe_GitVersion(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	p := NewExecProber(5*time.Second, &testLogger{})

	out, err := p.Probe(context.Background(), t.TempDir(), domain.CmdGitVersion)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "git version"), "unexpected output %q", out)
}

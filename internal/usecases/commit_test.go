package usecases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

func TestClassifyDecoration(t *testing.T) {
	tests := []struct {
		token string
		want  decoration
	}{
		{token: "HEAD", want: decoration{kind: decorationHead}},
		{token: "grafted", want: decoration{kind: decorationGrafted}},
		{token: "HEAD -> feature/x", want: decoration{kind: decorationHeadArrow, name: "feature/x"}},
		{token: "tag: v1.2.3", want: decoration{kind: decorationTag, name: "v1.2.3"}},
		{token: "origin/main", want: decoration{kind: decorationRef, name: "origin/main"}},
		{token: "asd -> master", want: decoration{kind: decorationRef, name: "asd -> master"}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyDecoration(tt.token))
		})
	}
}

func TestRefNameFromDecorations(t *testing.T) {
	tests := []struct {
		name        string
		decorations string
		wantRef     string
		wantOK      bool
	}{
		{name: "branch checkout", decorations: "HEAD -> master, origin/master", wantRef: "master", wantOK: true},
		{name: "detached on remote branch", decorations: "HEAD, origin/somebranch", wantRef: "origin/somebranch", wantOK: true},
		{name: "merge request ref", decorations: "HEAD, pull/3/merge", wantRef: "pull/3/merge", wantOK: true},
		{name: "tag", decorations: "HEAD, tag: 1.3.0", wantRef: "1.3.0", wantOK: true},
		{name: "tag preferred over alias", decorations: "HEAD, origin/release, tag: 2.0.0", wantRef: "2.0.0", wantOK: true},
		{name: "branch preferred over tag", decorations: "HEAD -> main, tag: 2.0.0, origin/main", wantRef: "main", wantOK: true},
		{name: "comma inside branch name", decorations: "HEAD -> feat,x, origin/feat", wantRef: "feat,x", wantOK: true},
		{name: "comma inside detached ref", decorations: "HEAD, origin/a,b", wantRef: "origin/a,b", wantOK: true},
		{name: "grafted is not an alias", decorations: "grafted, HEAD", wantOK: false},
		{name: "bare HEAD", decorations: "HEAD", wantOK: false},
		{name: "no HEAD marker", decorations: "origin/master", wantOK: false},
		{name: "arrow from non-HEAD", decorations: "asd -> master, origin/master", wantOK: false},
		{name: "tag without HEAD", decorations: "tag: asdf, origin/master", wantOK: false},
		{name: "empty", decorations: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := refNameFromDecorations(parseDecorations(tt.decorations))

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRef, ref)
		})
	}
}

func TestParseCommit(t *testing.T) {
	tests := []struct {
		name    string
		stdout  string
		want    domain.CommitData
		wantErr bool
	}{
		{
			name:   "branch checkout",
			stdout: "0261898 02618988a1864b3d06cfee3bd79f8baa2dd21407 HEAD -> master, origin/master",
			want: domain.CommitData{
				SHA:      "02618988a1864b3d06cfee3bd79f8baa2dd21407",
				ShortSHA: "0261898",
				RefName:  "master",
			},
		},
		{
			name:   "trailing newline",
			stdout: "0261898 02618988a1864b3d06cfee3bd79f8baa2dd21407 HEAD -> main\n",
			want: domain.CommitData{
				SHA:      "02618988a1864b3d06cfee3bd79f8baa2dd21407",
				ShortSHA: "0261898",
				RefName:  "main",
			},
		},
		{
			name:    "short hash does not prefix full hash",
			stdout:  "1111111 02618988a1864b3d06cfee3bd79f8baa2dd21407 HEAD -> main",
			wantErr: true,
		},
		{
			name:    "truncated full hash",
			stdout:  "0261898 02618988a1864b3d HEAD -> main",
			wantErr: true,
		},
		{
			name:    "missing decoration",
			stdout:  "0261898 02618988a1864b3d06cfee3bd79f8baa2dd21407",
			wantErr: true,
		},
		{
			name:    "free text",
			stdout:  "non valid log",
			wantErr: true,
		},
		{
			name:    "empty",
			stdout:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commit, err := parseCommit(tt.stdout)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrProbeMalformed)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, commit)
		})
	}
}

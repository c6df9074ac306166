package module

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takomusic/mfs/internal/diag"
	"github.com/takomusic/mfs/internal/source"
)

type memFS map[string]string

func (m memFS) ReadFile(path string) (string, error) {
	text, ok := m[path]
	if !ok {
		return "", errors.New("not found")
	}
	return text, nil
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		fromDir   string
		path      string
		wantCanon string
		wantStd   bool
		wantErr   bool
	}{
		{"std module", "/proj", "std:theory", "std:theory", true, false},
		{"unknown std module", "/proj", "std:nope", "", false, true},
		{"absolute path", "/proj/sub", "/lib/foo.mfs", "/lib/foo.mfs", false, false},
		{"relative path", "/proj/sub", "../foo.mfs", "/proj/foo.mfs", false, false},
		{"dot-relative path", "/proj/sub", "./foo.mfs", "/proj/sub/foo.mfs", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			canon, isStd, err := Resolve(tt.fromDir, tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCanon, canon)
			assert.Equal(t, tt.wantStd, isStd)
		})
	}
}

func TestLoaderCachesByCanonicalPath(t *testing.T) {
	fs := memFS{"/a.mfs": "export fn main() -> Score { return score { meta { } }; }"}
	reporter := diag.NewReporter(source.NewSet())
	loader := NewLoader(fs, source.NewSet(), reporter)

	m1, err := loader.Load("/a.mfs", false)
	require.NoError(t, err)
	m2, err := loader.Load("/a.mfs", false)
	require.NoError(t, err)
	assert.Same(t, m1, m2)
}

func TestLoaderStdModule(t *testing.T) {
	fs := memFS{}
	reporter := diag.NewReporter(source.NewSet())
	loader := NewLoader(fs, source.NewSet(), reporter)

	m, err := loader.Load("std:theory", true)
	require.NoError(t, err)
	assert.True(t, m.IsStd)
	assert.Nil(t, m.Program)
}

func TestLoaderModuleNotFound(t *testing.T) {
	fs := memFS{}
	reporter := diag.NewReporter(source.NewSet())
	loader := NewLoader(fs, source.NewSet(), reporter)

	_, err := loader.Load("/missing.mfs", false)
	require.Error(t, err)
}

func TestDir(t *testing.T) {
	assert.Equal(t, "/proj/sub", Dir("/proj/sub/a.mfs"))
	assert.Equal(t, ".", Dir("a.mfs"))
}

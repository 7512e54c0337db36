//go:build !windows

package collector

import (
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synctidy/internal/testutil"
)

func TestReadDir_NamedPipeIsOther(t *testing.T) {
	tmpDir := testutil.TempDir(t)
	if err := syscall.Mkfifo(filepath.Join(tmpDir, "pipe"), 0o644); err != nil {
		t.Skip("mkfifo not supported")
	}

	entries, err := ReadDir(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, KindOther, kindsByName(entries)["pipe"])
}

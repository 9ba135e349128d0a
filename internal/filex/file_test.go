package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureParentDir_CreatesNestedDirs(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "data.db")

	dir, err := EnsureParentDir(target)

	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(target), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureParentDir_BareFilenameIsNoop(t *testing.T) {
	dir, err := EnsureParentDir("data.db")

	require.NoError(t, err)
	assert.Equal(t, ".", dir)
}

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile creates a file with the given content, ensuring parent
// directories exist. It uses require assertions for test setup.
func WriteFile(t *testing.T, path string, content string) {
	t.Helper()
	fullPath := filepath.Clean(path)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755),
		"failed to create directory for %s", fullPath)
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644),
		"failed to write %s", fullPath)
}

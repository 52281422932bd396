package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorCmd_ExistingRoot(t *testing.T) {
	// Given: a small tree
	isolateHome(t)
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0755))

	// When: running doctor
	stdout, _, err := execute(t, "doctor", root)

	// Then: the root check passes
	require.NoError(t, err)
	assert.Contains(t, stdout, "[PASS] watch_root: 2 directories")
	assert.Contains(t, stdout, "lock_dir")
}

func TestDoctorCmd_MissingRootIsWarning(t *testing.T) {
	isolateHome(t)
	root := filepath.Join(t.TempDir(), "later")

	stdout, _, err := execute(t, "doctor", root)

	require.NoError(t, err)
	assert.Contains(t, stdout, "[WARN] watch_root")
}

func TestDoctorCmd_FileRootFails(t *testing.T) {
	isolateHome(t)
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0644))

	_, _, err := execute(t, "doctor", root)

	require.ErrorIs(t, err, errDoctorFailed)
}

func TestDoctorCmd_JSON(t *testing.T) {
	// Given: a valid root
	isolateHome(t)
	root := t.TempDir()

	// When: running doctor --json
	stdout, _, err := execute(t, "doctor", "--json", root)
	require.NoError(t, err)

	// Then: the report is machine readable
	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.NotEqual(t, "failed", report.Status)
	require.NotEmpty(t, report.Checks)
	assert.Equal(t, "watch_root", report.Checks[0].Name)
	assert.Equal(t, "PASS", report.Checks[0].Status)
}

func TestDoctorCmd_UsesConfiguredRoot(t *testing.T) {
	// Given: a project config naming a missing subdirectory
	isolateHome(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tangerine-watch.yaml"),
		[]byte("watch:\n  root: content\n"), 0644))

	// When: running doctor without an argument
	stdout, _, err := execute(t, "doctor", "--verbose")

	// Then: the configured root is checked
	require.NoError(t, err)
	assert.Contains(t, stdout, "[WARN] watch_root")
	assert.Contains(t, stdout, "content")
}

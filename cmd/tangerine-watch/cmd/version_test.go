package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentangerine/watch/pkg/version"
)

func TestVersionCmd_DefaultOutput(t *testing.T) {
	// When: executing without flags
	stdout, _, err := execute(t, "version")

	// Then: it should output the full version string
	require.NoError(t, err)
	assert.Contains(t, stdout, "tangerine-watch")
	assert.Contains(t, stdout, version.Short())
	assert.Contains(t, stdout, "commit")
}

func TestVersionCmd_ShortOutput(t *testing.T) {
	stdout, _, err := execute(t, "version", "--short")

	require.NoError(t, err)
	assert.Equal(t, version.Short(), strings.TrimSpace(stdout))
}

func TestVersionCmd_JSONOutput(t *testing.T) {
	stdout, _, err := execute(t, "version", "--json")
	require.NoError(t, err)

	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, version.Short(), info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.OS)
}

func TestRootCmd_VersionFlag(t *testing.T) {
	stdout, _, err := execute(t, "--version")

	require.NoError(t, err)
	assert.Equal(t, "tangerine-watch version "+version.Short()+"\n", stdout)
}

package cli

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	orig := version
	SetVersion(v)
	t.Cleanup(func() { version = orig })
}

func TestVersionCmd_Text(t *testing.T) {
	withVersion(t, "1.2.3")

	out, _, err := executeCommand(t, "", "version")

	require.NoError(t, err)
	assert.Contains(t, out, "marginalia version 1.2.3")
	assert.Contains(t, out, runtime.Version())
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersionCmd_JSON(t *testing.T) {
	withVersion(t, "1.2.3")

	out, _, err := executeCommand(t, "", "version", "-f", "json")

	require.NoError(t, err)
	var info buildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, runtime.Version(), info.Go)
}

func TestVersionCmd_BadFormat(t *testing.T) {
	_, _, err := executeCommand(t, "", "version", "-f", "xml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestSetVersion_IgnoresEmpty(t *testing.T) {
	withVersion(t, "dev")

	SetVersion("")

	assert.Equal(t, "dev", version)
}

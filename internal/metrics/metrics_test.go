package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	RecordAction("start", "success", 0.42)
	SetServiceUp(true)

	path := filepath.Join(t.TempDir(), "svclift.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.Contains(text, `svclift_action_total{command="start",outcome="success"}`),
		"counter missing from textfile:\n%s", text)
	require.True(t, strings.Contains(text, "svclift_service_up 1"),
		"gauge missing from textfile:\n%s", text)
}

func TestWriteTextfile_DisabledByEmptyPath(t *testing.T) {
	require.NoError(t, WriteTextfile(""))
}

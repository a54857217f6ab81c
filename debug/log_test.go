package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWritesCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")
	require.NoError(t, EnableAt(path))
	defer Disable()
	assert.True(t, Enabled())

	Log("sequencer", "toggled step %d", 3)
	for i := 0; i < 4; i++ {
		LogEvery(2, "playback", "tick")
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "Debug logging started")
	assert.Contains(t, out, "sequencer  toggled step 3")
	assert.Equal(t, 2, strings.Count(out, "playback   tick"))
}

func TestLogDisabledIsSilent(t *testing.T) {
	Disable()
	assert.False(t, Enabled())
	assert.NotPanics(t, func() { Log("theory", "nothing %s", "here") })
}

func TestPathUnderConfigDir(t *testing.T) {
	assert.True(t, strings.HasSuffix(Path(), filepath.Join(".config", "luthier", "debug.log")))
}

func TestOnlyFiltersCategories(t *testing.T) {
	var buf bytes.Buffer
	require.True(t, EnableWriter(&buf))
	defer Disable()
	assert.False(t, EnableWriter(&bytes.Buffer{}))

	Only("server", " playback ")
	Log("server", "created session %s", "abc")
	Log("tui", "hidden")
	Log("playback", "send failed")

	out := buf.String()
	assert.Contains(t, out, "server     created session abc")
	assert.Contains(t, out, "playback   send failed")
	assert.NotContains(t, out, "hidden")

	Only()
	Log("tui", "visible")
	assert.Contains(t, buf.String(), "tui        visible")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luthier/sequencer"
	"luthier/theory"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	assert := assert.New(t)
	cfg := DefaultConfig()
	assert.Equal("C", cfg.Root)
	assert.Equal("Minor", cfg.Mode)
	assert.Equal(2, cfg.Octave)
	assert.Equal(8, cfg.Pulses)
	assert.Equal(120, cfg.Tempo)

	set, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(theory.Minor, set.Mode)
	assert.Equal("C", set.Root.Name)
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luthier", "config.json")
	cfg := DefaultConfig()
	cfg.Root = "Eb"
	cfg.Mode = "Major"
	cfg.Tempo = 96
	cfg.MIDI = MIDIConfig{Port: "IAC Driver Bus 1", Channel: 2}
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadClampsAndRepairs(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"root":"H","mode":"dorian","octave":9,"pulses":0,"tempo":999}`), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal("C", cfg.Root)
	assert.Equal("Minor", cfg.Mode)
	assert.Equal(5, cfg.Octave)
	assert.Equal(1, cfg.Pulses)
	assert.Equal(sequencer.MaxTempo, cfg.Tempo)
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"root":`), 0644))
	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	assert := assert.New(t)
	cfg := DefaultConfig()
	cfg.ApplyEnv(envMap(map[string]string{
		"LUTHIER_ROOT":      "F#",
		"LUTHIER_MODE":      "major",
		"LUTHIER_OCTAVE":    "3",
		"LUTHIER_TEMPO":     "not-a-number",
		"LUTHIER_MIDI_PORT": "Synth",
		"LUTHIER_LISTEN":    "127.0.0.1:9000",
	}))
	cfg.Normalize()

	assert.Equal("F#", cfg.Root)
	assert.Equal("major", cfg.Mode)
	assert.Equal(3, cfg.Octave)
	assert.Equal(DefaultTempo, cfg.Tempo)
	assert.Equal("Synth", cfg.MIDI.Port)
	assert.Equal("127.0.0.1:9000", cfg.Server.Listen)

	set, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(theory.Major, set.Mode)
}

func TestSetSettingsRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	set, err := cfg.Settings()
	require.NoError(t, err)
	set.Root = theory.MustParseRoot("Bb")
	set.Negative = true
	cfg.SetSettings(set)

	again, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, set, again)
}

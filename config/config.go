package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"luthier/debug"
	"luthier/sequencer"
	"luthier/theory"
)

const DefaultTempo = 120

// MIDIConfig defines the synth MIDI output
type MIDIConfig struct {
	Port    string `json:"port,omitempty"`
	Channel int    `json:"channel"` // 0-15
}

// ServerConfig holds the HTTP listen address
type ServerConfig struct {
	Listen string `json:"listen,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Root            string       `json:"root"`
	Mode            string       `json:"mode"`
	Octave          int          `json:"octave"`
	Pulses          int          `json:"pulses"`
	Tempo           int          `json:"tempo"`
	NegativeHarmony bool         `json:"negativeHarmony,omitempty"`
	MIDI            MIDIConfig   `json:"midi,omitempty"`
	Server          ServerConfig `json:"server,omitempty"`
	Palette         string       `json:"palette,omitempty"` // path to a GPL palette
}

// DefaultConfig returns C minor, octave 2, 8 pulses at 120 bpm
func DefaultConfig() *Config {
	set := sequencer.DefaultSettings()
	return &Config{
		Root:   set.Root.Name,
		Mode:   set.Mode.String(),
		Octave: set.Octave,
		Pulses: set.Pulses,
		Tempo:  DefaultTempo,
		Server: ServerConfig{Listen: ":8080"},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "luthier"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, applies environment overrides and
// clamps the result. A missing file yields defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := DefaultConfig()
		cfg.ApplyEnv(os.LookupEnv)
		return cfg.Normalize(), nil
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg.Normalize(), nil
}

// LoadFrom reads one config file without environment overrides
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	// Fields absent from the file keep their defaults
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg.Normalize(), nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory
func (c *Config) SaveTo(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	debug.Log("config", "saving %s", path)
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from LUTHIER_* variables. Unparseable numbers
// are logged and ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("LUTHIER_ROOT"); ok && v != "" {
		c.Root = v
	}
	if v, ok := lookup("LUTHIER_MODE"); ok && v != "" {
		c.Mode = v
	}
	if v, ok := lookup("LUTHIER_MIDI_PORT"); ok {
		c.MIDI.Port = v
	}
	if v, ok := lookup("LUTHIER_LISTEN"); ok && v != "" {
		c.Server.Listen = v
	}
	envInt(lookup, "LUTHIER_OCTAVE", &c.Octave)
	envInt(lookup, "LUTHIER_TEMPO", &c.Tempo)
}

func envInt(lookup func(string) (string, bool), key string, dst *int) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		debug.Log("config", "ignoring %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}

// Normalize clamps numeric fields and resets an unknown root or mode
func (c *Config) Normalize() *Config {
	def := DefaultConfig()
	c.Octave = sequencer.Clamp(c.Octave, sequencer.MinOctave, sequencer.MaxOctave)
	c.Pulses = sequencer.Clamp(c.Pulses, sequencer.MinPulses, sequencer.MaxPulses)
	c.Tempo = sequencer.Clamp(c.Tempo, sequencer.MinTempo, sequencer.MaxTempo)
	c.MIDI.Channel = sequencer.Clamp(c.MIDI.Channel, 0, 15)

	if _, err := theory.ParseRoot(c.Root); err != nil {
		debug.Log("config", "unknown root %q, using %s", c.Root, def.Root)
		c.Root = def.Root
	}
	if _, err := theory.ParseMode(c.Mode); err != nil {
		debug.Log("config", "unknown mode %q, using %s", c.Mode, def.Mode)
		c.Mode = def.Mode
	}
	return c
}

// Settings converts the stored defaults into session settings
func (c *Config) Settings() (sequencer.Settings, error) {
	root, err := theory.ParseRoot(c.Root)
	if err != nil {
		return sequencer.Settings{}, err
	}
	mode, err := theory.ParseMode(c.Mode)
	if err != nil {
		return sequencer.Settings{}, err
	}
	return sequencer.Settings{
		Root:     root,
		Mode:     mode,
		Octave:   c.Octave,
		Pulses:   c.Pulses,
		Negative: c.NegativeHarmony,
	}.Normalize(), nil
}

// SetSettings copies session settings back for saving
func (c *Config) SetSettings(set sequencer.Settings) {
	c.Root = set.Root.Name
	c.Mode = set.Mode.String()
	c.Octave = set.Octave
	c.Pulses = set.Pulses
	c.NegativeHarmony = set.Negative
}

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// MidiPortConfig names one half of the serial-MIDI/USB-MIDI transport
// pair and whether the engine should try to open it automatically.
type MidiPortConfig struct {
	PortName    string `json:"portName,omitempty"`
	AutoConnect bool   `json:"autoConnect"`
}

// ClockConfig holds host-level clock defaults: the PPQN override (0 means
// use the compiled-in default) and the simulator's fixed-rate tick pump
// interval, in ticks per second, used when no real hardware timer is
// driving Engine.Update.
type ClockConfig struct {
	PpqnOverride      int     `json:"ppqnOverride,omitempty"`
	SimulatorTickRate float64 `json:"simulatorTickRate,omitempty"`
}

// UIConfig stores UI preferences.
type UIConfig struct {
	LastBpm           float32 `json:"lastBpm,omitempty"`
	LastFocusedTrack  int     `json:"lastFocusedTrack,omitempty"`
}

// Config is the engine host's configuration structure.
type Config struct {
	Midi    MidiPortConfig `json:"midi,omitempty"`
	UsbMidi MidiPortConfig `json:"usbMidi,omitempty"`
	Clock   ClockConfig    `json:"clock,omitempty"`
	UI      UIConfig       `json:"ui,omitempty"`
}

// DefaultConfig returns a config with sensible defaults: both transports
// named and auto-connected (Port.Open succeeds without opening anything
// when no port of that name exists), the compiled-in PPQN, and a 60Hz
// simulator tick pump.
func DefaultConfig() *Config {
	return &Config{
		Midi: MidiPortConfig{
			PortName:    "Step Sequencer MIDI",
			AutoConnect: true,
		},
		UsbMidi: MidiPortConfig{
			PortName:    "Step Sequencer USB MIDI",
			AutoConnect: true,
		},
		Clock: ClockConfig{
			SimulatorTickRate: 60,
		},
		UI: UIConfig{
			LastBpm: 120,
		},
	}
}

// ConfigDir returns the config directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "stepsequencer"), nil
}

// ConfigPath returns the full path to config.json.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Package config holds the mixer engine's compile-/boot-time parameters,
// loadable from defaults, an optional YAML file, and CLI flags, in that
// order of increasing precedence.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds all tunable parameters for the mixer engine and its
// surrounding demo/command-adapter wiring.
type Config struct {
	SinkRate          uint32 `yaml:"sink_rate"`
	MaxSources        int    `yaml:"max_sources"`
	RingBytes         int    `yaml:"ring_bytes"`
	FramesPerTick     int    `yaml:"frames_per_tick"`
	ChunkInFrames     int    `yaml:"chunk_in_frames"`
	DrainMS           int    `yaml:"drain_ms"`
	StatusIntervalSec int    `yaml:"status_interval_sec"`
	StorageRoot       string `yaml:"storage_root"`
	Verbose           bool   `yaml:"verbose"`
}

// New returns a Config populated with the spec's nominal defaults.
func New() *Config {
	return &Config{
		SinkRate:          44100,
		MaxSources:        4,
		RingBytes:         16 * 1024,
		FramesPerTick:     512,
		ChunkInFrames:     512,
		DrainMS:           30,
		StatusIntervalSec: 5,
		StorageRoot:       "sounds",
		Verbose:           false,
	}
}

// LoadFile overlays YAML-file values onto cfg. A missing file is not an
// error; it simply leaves cfg at its current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// BindFlags registers the sink rate, source count, ring size, tick size,
// storage root and verbose fields onto fs, so CLI flags override both
// defaults and any loaded file. ChunkInFrames, DrainMS and
// StatusIntervalSec have no flag.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.Uint32Var(&c.SinkRate, "sink-rate", c.SinkRate, "sink sample rate in Hz")
	fs.IntVar(&c.MaxSources, "max-sources", c.MaxSources, "number of concurrent playback slots")
	fs.IntVar(&c.RingBytes, "ring-bytes", c.RingBytes, "per-slot ring buffer capacity in bytes")
	fs.IntVar(&c.FramesPerTick, "frames-per-tick", c.FramesPerTick, "output stereo frames mixed per tick")
	fs.StringVar(&c.StorageRoot, "storage-root", c.StorageRoot, "root directory for sounds/NNNN.wav assets")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "enable debug logging")
}

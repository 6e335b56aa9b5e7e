// Package engineconfig is the delta engine's JSON-loadable configuration:
// a Default() literal, a Load(path) that overlays JSON onto it, and a
// Validate() that fills in zero values and rejects inconsistent ones.
package engineconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cosmoslab/frisbee/internal/hashkind"
)

// Config holds the caller-facing policy knobs: whether hash-free mode is
// used, which hash kind and block size seed a brand-new signature, and
// which stats sink backs diagnostics.
type Config struct {
	// HashFreeMode is the default for delta.Context.HashFreeMode.
	HashFreeMode bool `json:"hash_free_mode"`

	// PreferV3OnNarrow selects SHA256/v3 as the default for a brand-new
	// signature; when false, new signatures default to SHA1.
	PreferV3OnNarrow bool `json:"prefer_v3_on_narrow"`

	// DefaultHashKindV3 and DefaultHashKindLegacy name the hash kind used
	// for a new signature depending on PreferV3OnNarrow, as hashkind.Kind
	// strings ("MD5", "SHA1", "SHA256").
	DefaultHashKindV3     string `json:"default_hash_kind_v3"`
	DefaultHashKindLegacy string `json:"default_hash_kind_legacy"`

	// DefaultHashBlockSize is the hash_block_size (sectors) for a
	// brand-new signature.
	DefaultHashBlockSize uint32 `json:"default_hash_block_size"`

	// StatsSink selects the diagnostics backend: "counters" (default),
	// "logrus", or "prometheus".
	StatsSink string `json:"stats_sink"`
}

// Default returns the engine's built-in defaults.
func Default() Config {
	return Config{
		HashFreeMode:          true,
		PreferV3OnNarrow:      true,
		DefaultHashKindV3:     "SHA256",
		DefaultHashKindLegacy: "SHA1",
		DefaultHashBlockSize:  128,
		StatsSink:             "counters",
	}
}

// Load reads path as JSON over Default(), then validates the result. An
// empty path returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate fills in zero values left empty by a partial JSON overlay and
// rejects settings that can't be resolved to a valid hashkind.Kind.
func (c *Config) Validate() error {
	if c.DefaultHashKindV3 == "" {
		c.DefaultHashKindV3 = "SHA256"
	}
	if c.DefaultHashKindLegacy == "" {
		c.DefaultHashKindLegacy = "SHA1"
	}
	if c.DefaultHashBlockSize == 0 {
		c.DefaultHashBlockSize = 128
	}
	if c.StatsSink == "" {
		c.StatsSink = "counters"
	}
	if _, err := c.resolveKind(c.DefaultHashKindV3); err != nil {
		return err
	}
	if _, err := c.resolveKind(c.DefaultHashKindLegacy); err != nil {
		return err
	}
	switch c.StatsSink {
	case "counters", "logrus", "prometheus":
	default:
		return fmt.Errorf("engineconfig: unknown stats_sink %q", c.StatsSink)
	}
	return nil
}

func (c *Config) resolveKind(name string) (hashkind.Kind, error) {
	switch name {
	case "MD5":
		return hashkind.MD5, nil
	case "SHA1":
		return hashkind.SHA1, nil
	case "SHA256":
		return hashkind.SHA256, nil
	default:
		return 0, fmt.Errorf("engineconfig: unknown hash kind %q", name)
	}
}

// DefaultHashKind resolves the hash kind a brand-new signature should use,
// per PreferV3OnNarrow.
func (c Config) DefaultHashKind() hashkind.Kind {
	name := c.DefaultHashKindLegacy
	if c.PreferV3OnNarrow {
		name = c.DefaultHashKindV3
	}
	k, err := c.resolveKind(name)
	if err != nil {
		return hashkind.SHA1
	}
	return k
}

// Package config loads the three process-wide settings spec §6 names
// (boot-image path, kernel-library path, verbosity level), reading an
// optional ini file and expanding home directories the way the teacher's
// collaborator stack does.
package config

import (
	"fmt"
	"os"

	"github.com/go-ini/ini"
	"github.com/go-viper/mapstructure/v2"
	"github.com/mitchellh/go-homedir"
)

// Settings holds the three values spec §6 calls out as the core's external
// configuration surface, plus the native module paths the CLI pre-links at
// boot (an ambient convenience, not part of the core contract).
type Settings struct {
	BootImage   string   `mapstructure:"boot_image"`
	KernelLib   string   `mapstructure:"kernel_lib"`
	Verbosity   int      `mapstructure:"verbosity"`
	LoadModules []string `mapstructure:"-"`
}

// Load reads path (if it exists) into Settings, falling back to zero values
// for anything the file doesn't set. A missing file is not an error — the
// CLI's flags are expected to fill in the rest.
func Load(path string) (Settings, error) {
	var s Settings
	if path == "" {
		return s, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return s, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return s, fmt.Errorf("config: loading %s: %w", path, err)
	}

	raw := cfg.Section("bowl").KeysHash()
	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		fields[k] = v
	}

	if err := mapstructure.WeakDecode(fields, &s); err != nil {
		return s, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	if err := s.expandPaths(); err != nil {
		return s, err
	}
	return s, nil
}

func (s *Settings) expandPaths() error {
	expanded, err := homedir.Expand(s.BootImage)
	if err != nil {
		return fmt.Errorf("config: expanding boot_image: %w", err)
	}
	s.BootImage = expanded

	expanded, err = homedir.Expand(s.KernelLib)
	if err != nil {
		return fmt.Errorf("config: expanding kernel_lib: %w", err)
	}
	s.KernelLib = expanded
	return nil
}

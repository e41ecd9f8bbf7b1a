// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/u-root/msm-restart/pkg/restart"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the daemon and the CLI look for overrides.
const DefaultPath = "/etc/msm-restart.yaml"

// Region is a physical address range. An address of 0 means the region is
// not described by the platform.
type Region struct {
	Address uint64 `yaml:"address"`
	Size    int    `yaml:"size"`
}

type Config struct {
	// Persistent IMEM cells read by the boot loader.
	RestartReason         Region `yaml:"restart_reason"`
	DownloadMode          Region `yaml:"download_mode"`
	EmergencyDownloadMode Region `yaml:"emergency_download_mode"`

	PsHold        uint64 `yaml:"ps_hold"`
	WdogDebug     uint64 `yaml:"wdog_debug"`
	Pon           uint64 `yaml:"pon"`
	PonLegacyCtrl uint64 `yaml:"pon_legacy_ctrl"`

	// DownloadModeSwitch is the master switch at boot, 0 or 1. Changes
	// made while running are kept in DownloadModeState until reboot.
	DownloadModeSwitch int           `yaml:"download_mode_switch"`
	DownloadModeState  string        `yaml:"download_mode_state"`
	PoweroffCharging   bool          `yaml:"poweroff_charging"`
	FatalTimeout       time.Duration `yaml:"fatal_timeout"`

	Features restart.Features `yaml:"features"`

	LogFile string `yaml:"log_file"`
	Listen  string `yaml:"listen"`
}

// DefaultConfig describes an msm8974. Watchdog debug and the PON block are
// not described there and stay unused.
var DefaultConfig = &Config{
	RestartReason:         Region{Address: 0xfe805000 + 0x65c, Size: 4},
	DownloadMode:          Region{Address: 0xfe805000, Size: 8},
	EmergencyDownloadMode: Region{Address: 0xfe805000 + 0xfe0, Size: 12},

	PsHold: 0xfc4ab000,

	DownloadModeSwitch: 1,
	DownloadModeState:  "/run/msm-restart/download_mode",
	FatalTimeout:       10 * time.Second,

	Features: restart.Features{
		DloadMode: true,
	},

	LogFile: "/tmp/msm-restart.log",
	Listen:  "127.0.0.1:9420",
}

// Load reads path from fs on top of a copy of DefaultConfig. A missing file
// yields the defaults.
func Load(fs afero.Fs, path string) (*Config, error) {
	c := *DefaultConfig
	b, err := afero.ReadFile(fs, path)
	switch {
	case errors.Is(err, afero.ErrFileNotFound):
		return &c, nil
	case err != nil:
		return nil, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	for name, r := range map[string]Region{
		"restart_reason":          c.RestartReason,
		"download_mode":           c.DownloadMode,
		"emergency_download_mode": c.EmergencyDownloadMode,
	} {
		if r.Address == 0 {
			continue
		}
		if r.Address%4 != 0 || r.Size <= 0 || r.Size%4 != 0 {
			return fmt.Errorf("%s: bad region %#x+%d", name, r.Address, r.Size)
		}
	}
	if c.RestartReason.Address != 0 && c.RestartReason.Size < 4 {
		return fmt.Errorf("restart_reason: need at least 4 bytes")
	}
	if c.DownloadMode.Address != 0 && c.DownloadMode.Size < 8 {
		return fmt.Errorf("download_mode: need at least 8 bytes")
	}
	if c.EmergencyDownloadMode.Address != 0 && c.EmergencyDownloadMode.Size < 12 {
		return fmt.Errorf("emergency_download_mode: need at least 12 bytes")
	}
	if err := restart.ValidateDownloadMode(c.DownloadModeSwitch); err != nil {
		return err
	}
	if c.FatalTimeout <= 0 {
		return fmt.Errorf("fatal_timeout must be positive, got %v", c.FatalTimeout)
	}
	return nil
}

// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/u-root/msm-restart/pkg/restart"
)

// DownloadModeSwitchFor returns the master switch in effect for this boot:
// the value last saved to DownloadModeState, or DownloadModeSwitch if none
// was saved.
func (c *Config) DownloadModeSwitchFor(fs afero.Fs) (int, error) {
	if c.DownloadModeState == "" {
		return c.DownloadModeSwitch, nil
	}
	b, err := afero.ReadFile(fs, c.DownloadModeState)
	switch {
	case errors.Is(err, afero.ErrFileNotFound):
		return c.DownloadModeSwitch, nil
	case err != nil:
		return 0, err
	}
	v, err := restart.ParseDownloadMode(string(b))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", c.DownloadModeState, err)
	}
	return v, nil
}

// SaveDownloadModeSwitch keeps v for the rest of the boot. The state
// directory is expected to be on a tmpfs.
func (c *Config) SaveDownloadModeSwitch(fs afero.Fs, v int) error {
	if err := restart.ValidateDownloadMode(v); err != nil {
		return err
	}
	if c.DownloadModeState == "" {
		return nil
	}
	if err := fs.MkdirAll(filepath.Dir(c.DownloadModeState), 0755); err != nil {
		return err
	}
	return afero.WriteFile(fs, c.DownloadModeState, []byte(fmt.Sprintf("%d\n", v)), 0644)
}

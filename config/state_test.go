// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/u-root/msm-restart/pkg/restart"
)

func TestDownloadModeSwitchSaved(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := *DefaultConfig

	v, err := c.DownloadModeSwitchFor(fs)
	if err != nil || v != 1 {
		t.Fatalf("nothing saved: got %d, %v; want the boot value 1", v, err)
	}
	if err := c.SaveDownloadModeSwitch(fs, 0); err != nil {
		t.Fatalf("SaveDownloadModeSwitch: %v", err)
	}
	b, _ := afero.ReadFile(fs, c.DownloadModeState)
	if string(b) != "0\n" {
		t.Errorf("state file holds %q", b)
	}
	if v, err := c.DownloadModeSwitchFor(fs); err != nil || v != 0 {
		t.Errorf("after save: got %d, %v; want 0", v, err)
	}
}

func TestDownloadModeSwitchRejects(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := *DefaultConfig
	if err := c.SaveDownloadModeSwitch(fs, 2); !errors.Is(err, restart.ErrInvalidDownloadMode) {
		t.Errorf("expected ErrInvalidDownloadMode, got %v", err)
	}
	if ok, _ := afero.Exists(fs, c.DownloadModeState); ok {
		t.Errorf("an invalid value was saved")
	}

	afero.WriteFile(fs, c.DownloadModeState, []byte("7\n"), 0644)
	if _, err := c.DownloadModeSwitchFor(fs); !errors.Is(err, restart.ErrInvalidDownloadMode) {
		t.Errorf("expected ErrInvalidDownloadMode for a corrupt file, got %v", err)
	}
}

func TestDownloadModeSwitchNoState(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := *DefaultConfig
	c.DownloadModeState = ""
	c.DownloadModeSwitch = 0
	if err := c.SaveDownloadModeSwitch(fs, 1); err != nil {
		t.Fatalf("SaveDownloadModeSwitch: %v", err)
	}
	if v, err := c.DownloadModeSwitchFor(fs); err != nil || v != 0 {
		t.Errorf("got %d, %v; want the configured 0", v, err)
	}
}

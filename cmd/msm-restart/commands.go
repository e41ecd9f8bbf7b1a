// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/u-root/msm-restart/pkg/hardware/hostreboot"
	"github.com/u-root/msm-restart/pkg/restart"
)

var (
	keepPowerHold bool
	rebootDload   bool

	// Replaced in tests.
	hostRestart  = hostreboot.Restart
	hostPowerOff = hostreboot.PowerOff
	baseOptions  restart.Options
)

var rebootCmd = &cobra.Command{
	Use:   "reboot [command]",
	Short: "Restart the SoC, leaving command for the boot loader",
	Long: `Restart the SoC. The optional command is encoded into the restart
reason cell, e.g. "bootloader", "recovery", "oem-1a" or "edl".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReboot,
}

var poweroffCmd = &cobra.Command{
	Use:   "poweroff",
	Short: "Power the SoC off",
	Args:  cobra.NoArgs,
	RunE:  runPoweroff,
}

var downloadModeCmd = &cobra.Command{
	Use:   "download-mode [0|1]",
	Short: "Show or set the download mode master switch",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDownloadMode,
}

func init() {
	rebootCmd.Flags().BoolVar(&rebootDload, "dload", false, "Arm download mode for this restart, subject to the master switch")
	poweroffCmd.Flags().BoolVar(&keepPowerHold, "keep-power-hold", false, "Only configure the PMIC and leave PS_HOLD asserted")
}

func runReboot(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	rc := restart.NoCmd
	arg := ""
	if len(args) == 1 {
		rc = restart.Cmd(args[0])
		arg = args[0]
	}
	ctl, closeMem, err := openController(c, baseOptions)
	if errors.Is(err, restart.ErrNoReasonRegion) {
		log.Warnf("No restart reason cell, restarting through the kernel")
		return hostRestart(arg)
	}
	if err != nil {
		return err
	}
	defer closeMem()
	if rebootDload {
		ctl.SetRestartMode(restart.RestartDload)
	}
	return ctl.Restart(rc)
}

func runPoweroff(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	ctl, closeMem, err := openController(c, baseOptions)
	if errors.Is(err, restart.ErrNoReasonRegion) {
		log.Warnf("No restart reason cell, powering off through the kernel")
		return hostPowerOff()
	}
	if err != nil {
		return err
	}
	defer closeMem()
	return ctl.PowerOff(!keepPowerHold)
}

func runDownloadMode(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		v, err := c.DownloadModeSwitchFor(fs)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\n", v)
		return nil
	}
	v, err := restart.ParseDownloadMode(args[0])
	if err != nil {
		return err
	}
	ctl, closeMem, err := openController(c, baseOptions)
	if err != nil {
		return err
	}
	defer closeMem()
	if err := (savedSwitch{ctl, c}).SetDownloadModeSwitch(v); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d\n", ctl.DownloadModeSwitch())
	return nil
}

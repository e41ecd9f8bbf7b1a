// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/u-root/msm-restart/config"
	"github.com/u-root/msm-restart/pkg/logger"
)

var (
	log = logger.LogContainer.GetSimpleLogger()

	configPath string
	fs         = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:   "msm-restart",
	Short: "Restart and power off an MSM SoC",
	Long: `Restart and power off an MSM SoC the way its boot loader expects.

The restart reason and download mode cells in IMEM are written before
PS_HOLD is dropped, so the next boot knows why it happened.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "YAML file overriding the built in platform description")
	rootCmd.AddCommand(rebootCmd, poweroffCmd, downloadModeCmd, serveCmd)
}

func loadConfig() (*config.Config, error) {
	c, err := config.Load(fs, configPath)
	if err != nil {
		return nil, err
	}
	if c.LogFile != "" {
		if err := logger.SetLogFile(c.LogFile); err != nil {
			log.Warnf("Unable to log to %s: %v", c.LogFile, err)
		}
	}
	return c, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

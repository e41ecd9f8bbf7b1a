// Copyright 2018 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/u-root/msm-restart/pkg/network/web"
	"github.com/u-root/msm-restart/pkg/restart"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep download mode armed and serve its parameters over HTTP",
	Long: `Map the restart cells and keep them for the lifetime of the process.

A panic in any worker is reported and the SoC is restarted so that
download mode catches it. SIGTERM is treated as a normal reboot.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// panicSink is the part of the controller a worker guard reports to.
type panicSink interface {
	OnPanic()
	Restart(restart.Command) error
}

// guard turns a panic in fn into a panic notification and a restart.
func guard(c panicSink, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("Worker panic: %v\n%s", r, debug.Stack())
				c.OnPanic()
				err = c.Restart(restart.NoCmd)
			}
		}()
		return fn()
	}
}

// waitTerm returns once ctx is done or a termination signal arrived, in
// which case the controller is told a normal reboot is coming.
func waitTerm(ctx context.Context, c restart.EventSink, sigs <-chan os.Signal) error {
	select {
	case <-ctx.Done():
		return nil
	case s := <-sigs:
		log.Infof("Got %v, shutting down", s)
		c.OnReboot()
		return nil
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	ctl, closeMem, err := openController(c, baseOptions)
	if err != nil {
		return err
	}
	defer closeMem()

	w := web.NewWebserver()
	w.Register(savedSwitch{ctl, c})
	if err := w.SetServer(c.Listen); err != nil {
		return err
	}
	log.Infof("Serving on %v", w.Listener.Addr())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, os.Interrupt)
	defer signal.Stop(sigs)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(guard(ctl, func() error { return w.Serve(gctx) }))
	g.Go(guard(ctl, func() error {
		defer cancel()
		return waitTerm(gctx, ctl, sigs)
	}))
	return g.Wait()
}

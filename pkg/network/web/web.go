// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/u-root/msm-restart/pkg/logger"
	"github.com/u-root/msm-restart/pkg/metric"
	"github.com/u-root/msm-restart/pkg/restart"
)

var log = logger.LogContainer.GetSimpleLogger()

// Controller is what the HTTP surface needs from restart.Controller.
type Controller interface {
	DownloadModeSwitch() int
	SetDownloadModeSwitch(v int) error
	Status() restart.Status
}

// WebServer is the struct that holds all necessary information
// for a single port on which web services are served on
type WebServer struct {
	Mux      *http.ServeMux
	Serv     *http.Server
	Listener net.Listener
}

// NewWebserver returns a pointer to a new WebServer struct and
// initialises it with a new http.ServeMux
func NewWebserver() *WebServer {
	return &WebServer{
		Mux: http.NewServeMux(),
	}
}

// SetServer fills the WebServer struct and starts a net.Listener on addr.
// A port of 0 picks one at random.
func (w *WebServer) SetServer(addr string) error {
	w.Serv = &http.Server{
		Handler:           w.Mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	var err error
	w.Listener, err = net.Listen("tcp", addr)
	return err
}

// Serve blocks until ctx is done or the listener fails.
func (w *WebServer) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		errc <- w.Serv.Serve(w.Listener)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		w.Serv.Shutdown(sctx)
		<-errc
		return nil
	}
}

// Register installs the restart handlers and /metrics on the mux.
func (w *WebServer) Register(c Controller) {
	w.Mux.HandleFunc("/parameters/download_mode", downloadModeHandler(c))
	w.Mux.HandleFunc("/state", stateHandler(c))
	metric.StartMetrics(w.Mux)
}

func downloadModeHandler(c Controller) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprintf(rw, "%d\n", c.DownloadModeSwitch())
		case http.MethodPut, http.MethodPost:
			b, err := io.ReadAll(io.LimitReader(r.Body, 64))
			if err != nil {
				http.Error(rw, err.Error(), http.StatusBadRequest)
				return
			}
			v, err := restart.ParseDownloadMode(string(b))
			if err == nil {
				err = c.SetDownloadModeSwitch(v)
			}
			switch {
			case errors.Is(err, restart.ErrInvalidDownloadMode):
				http.Error(rw, err.Error(), http.StatusBadRequest)
			case errors.Is(err, restart.ErrDownloadModeUnsupported):
				http.Error(rw, err.Error(), http.StatusNotImplemented)
			case err != nil:
				http.Error(rw, err.Error(), http.StatusInternalServerError)
			default:
				log.Infof("download_mode set to %d from %s", v, r.RemoteAddr)
				fmt.Fprintf(rw, "%d\n", v)
			}
		default:
			rw.Header().Set("Allow", "GET, PUT")
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func stateHandler(c Controller) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.Header().Set("Allow", "GET")
			http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(rw).Encode(c.Status()); err != nil {
			log.Errorf("Encoding state: %v", err)
		}
	}
}

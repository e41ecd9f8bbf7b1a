// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogFile receives the JSON copy of everything logged.
const DefaultLogFile = "/tmp/msm-restart.log"

var (
	LogContainer     logContainer
	loggerInit       sync.Once
	simpleLoggerInit sync.Once

	sink = &fileSink{}
)

type logContainer struct {
	logger       *zap.Logger
	simpleLogger *zap.SugaredLogger
}

// fileSink is the JSON side of the tee. Writes are dropped while no file
// is open.
type fileSink struct {
	m sync.Mutex
	f *os.File
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.f == nil {
		return len(p), nil
	}
	return s.f.Write(p)
}

func (s *fileSink) Sync() error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.f == nil {
		return nil
	}
	return s.f.Sync()
}

func (s *fileSink) open(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	s.m.Lock()
	old := s.f
	s.f = f
	s.m.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// SetLogFile moves the JSON log to path. Loggers already handed out follow.
func SetLogFile(path string) error {
	return sink.open(path)
}

// GetLogger returns the pointer to the logger and creates one if none exists
func (l *logContainer) GetLogger() *zap.Logger {
	loggerInit.Do(func() {
		l.logger = zap.New(getCombinedCore())
	})
	return l.logger
}

// GetSimpleLogger returns the pointer to the sugared logger and creates one
// if none exists
func (l *logContainer) GetSimpleLogger() *zap.SugaredLogger {
	simpleLoggerInit.Do(func() {
		l.simpleLogger = l.GetLogger().Sugar()
	})
	return l.simpleLogger
}

// String mirrors zap.String
func (l *logContainer) String(key string, val string) zap.Field {
	return zap.String(key, val)
}

// Uint32 mirrors zap.Uint32
func (l *logContainer) Uint32(key string, val uint32) zap.Field {
	return zap.Uint32(key, val)
}

func getConsoleEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getJsonEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.EpochTimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

func getConsoleCore() zapcore.Core {
	return zapcore.NewCore(getConsoleEncoder(), zapcore.Lock(os.Stdout), zapcore.InfoLevel)
}

func getCombinedCore() zapcore.Core {
	// Read-only rootfs leaves the sink closed, console only.
	sink.open(DefaultLogFile)
	return zapcore.NewTee(getConsoleCore(), zapcore.NewCore(getJsonEncoder(), sink, zapcore.InfoLevel))
}

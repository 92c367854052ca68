// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

func parseLevel(text string) (slog.Level, error) {
	if strings.EqualFold(text, "trace") {
		return log.LevelTrace, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return 0, fmt.Errorf("unsupported log level %q", text)
	}
	return level, nil
}

type withLevel struct {
	slog.Handler
	level slog.Level
}

func (h *withLevel) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// setupLogging installs the root logger. Logs go to stderr, or to a
// rotated file if one is configured. The returned closer releases the
// file.
func setupLogging(cfg Config) (io.Closer, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	var out io.WriteCloser = nopCloser{os.Stderr}
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 14,
			MaxAge:     14,
			Compress:   true,
			LocalTime:  true,
		}
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		handler = log.JSONHandler(out)
	case "logfmt":
		handler = log.LogfmtHandler(out)
	default:
		handler = log.NewTerminalHandler(out, false)
	}
	log.SetDefault(log.NewLogger(&withLevel{Handler: handler, level: level}))
	return out, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

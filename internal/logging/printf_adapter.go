// MPDRec - Million Playlist Dataset Recommendation Baseline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mpdrec

package logging

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// PrintfAdapter bridges libraries that log through printf-style leveled
// methods (Errorf, Warningf, Infof, Debugf) onto zerolog. It satisfies
// badger.Logger.
//
//	opts := badger.DefaultOptions(dir).WithLogger(logging.NewPrintfAdapter("badger"))
type PrintfAdapter struct {
	logger zerolog.Logger
}

// NewPrintfAdapter wraps the global logger with a component field.
func NewPrintfAdapter(component string) *PrintfAdapter {
	return &PrintfAdapter{logger: WithComponent(component)}
}

// NewPrintfAdapterWithLogger wraps a specific logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPrintfAdapterWithLogger(l zerolog.Logger) *PrintfAdapter {
	return &PrintfAdapter{logger: l}
}

func (a *PrintfAdapter) Errorf(format string, args ...interface{}) {
	a.logger.Error().Msg(clean(format, args))
}

func (a *PrintfAdapter) Warningf(format string, args ...interface{}) {
	a.logger.Warn().Msg(clean(format, args))
}

// Infof is logged at debug level; library chatter at info drowns pipeline progress.
func (a *PrintfAdapter) Infof(format string, args ...interface{}) {
	a.logger.Debug().Msg(clean(format, args))
}

func (a *PrintfAdapter) Debugf(format string, args ...interface{}) {
	a.logger.Trace().Msg(clean(format, args))
}

func clean(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

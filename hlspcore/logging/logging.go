/*
   Copyright 2026 The MAST-HLSP Authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package logging provides structured logging for the HLSP metadata
// pipeline, wrapping zerolog behind a small interface-free facade.
//
// hlspcore is a library: it never configures a global logger and defaults
// to a no-op logger so that embedding applications stay in control of their
// own output. Pipeline stage tools construct a Logger with New and pass it
// into document.Config.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level emitted: "debug", "info", "warn" or
	// "error". Unknown values fall back to "info".
	Level string

	// Pretty enables console-friendly output for interactive use.
	Pretty bool

	// Output is the destination writer. Defaults to os.Stderr.
	Output io.Writer
}

// Logger is a thin value wrapper around a zerolog.Logger. The zero value is
// NOT usable; construct one with New or Nop.
type Logger struct {
	zl zerolog.Logger
}

// New creates a structured logger from the given configuration.
func New(cfg Config) Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zl := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "hlsp").
		Logger()

	return Logger{zl: zl}
}

// Nop returns a logger that discards everything. This is the default for
// documents constructed without an explicit logger.
func Nop() Logger {
	return Logger{zl: zerolog.Nop()}
}

// WithComponent returns a logger annotated with a component field, for
// example "document", "template" or "export".
func (l Logger) WithComponent(component string) Logger {
	return Logger{zl: l.zl.With().Str("component", component).Logger()}
}

// WithProduct returns a logger annotated with the HLSP product name.
func (l Logger) WithProduct(name string) Logger {
	return Logger{zl: l.zl.With().Str("hlsp", name).Logger()}
}

// Debug starts a debug-level event.
func (l Logger) Debug() *zerolog.Event { return l.zl.Debug() }

// Info starts an info-level event.
func (l Logger) Info() *zerolog.Event { return l.zl.Info() }

// Warn starts a warn-level event.
func (l Logger) Warn() *zerolog.Event { return l.zl.Warn() }

// Error starts an error-level event.
func (l Logger) Error() *zerolog.Event { return l.zl.Error() }

// Package bowllog builds the leveled, optionally rotating logger the VM
// writes its GC pass lines to (and the CLI host its own messages), the way
// the teacher repo wires its own CLI logging.
package bowllog

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New. A zero-value Options (Verbosity 0) produces a
// silent logger writing nowhere; with a positive Verbosity and neither
// Output nor LogFile set, lines go to os.Stderr.
type Options struct {
	// Verbosity is the process-wide setting from spec §6: 0 is silent, 1 is
	// Info, 2 is Debug, 3+ is Trace.
	Verbosity int

	// Name prefixes each line, matching hclog's convention.
	Name string

	// Output defaults to os.Stderr when both it and LogFile are empty.
	Output io.Writer

	// LogFile, when set, routes output through a rotating lumberjack writer
	// instead of Output.
	LogFile    string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New builds an hclog.Logger honoring Options' verbosity mapping.
func New(opts Options) hclog.Logger {
	if opts.Verbosity <= 0 {
		return hclog.NewNullLogger()
	}

	var out io.Writer = opts.Output
	if opts.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    defaultInt(opts.MaxSizeMB, 10),
			MaxBackups: defaultInt(opts.MaxBackups, 3),
			MaxAge:     defaultInt(opts.MaxAgeDays, 28),
		}
	} else if out == nil {
		out = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   opts.Name,
		Level:  levelFor(opts.Verbosity),
		Output: out,
	})
}

func levelFor(verbosity int) hclog.Level {
	switch {
	case verbosity >= 3:
		return hclog.Trace
	case verbosity == 2:
		return hclog.Debug
	case verbosity == 1:
		return hclog.Info
	default:
		return hclog.Off
	}
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

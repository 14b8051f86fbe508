// Package logging builds the zerolog logger used by the command line tool.
package logging

import (
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "time"
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		function := ""
		fun := runtime.FuncForPC(pc)
		if fun != nil {
			funName := fun.Name()
			slash := strings.LastIndex(funName, "/")
			if slash > 0 {
				funName = funName[slash+1:]
			}
			function = " " + funName + "()"
		}
		return file + ":" + strconv.Itoa(line) + function
	}
}

// Options controls the logger's output.
type Options struct {
	// Pretty switches to human readable console output.
	Pretty bool
	// Debug lowers the level from info to debug.
	Debug bool
}

// OptionsFromEnv reads PRETTY=1 and DEBUG=1.
func OptionsFromEnv() Options {
	return Options{
		Pretty: os.Getenv("PRETTY") == "1",
		Debug:  os.Getenv("DEBUG") == "1",
	}
}

// New returns a logger writing to w. Query results go to stdout, so the
// command line tool passes stderr here.
func New(w io.Writer, opts Options) zerolog.Logger {
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}

	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).
		Level(level).
		With().Timestamp().Logger().
		Hook(CallerHook{})
}

type CallerHook struct{}

func (h CallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Caller(3)
}

package log

import (
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// Only the first stack line ("goroutine 123 [running]:") is needed.
	minStackBufSize = 32
	// Minimum expected stack trace length for valid goroutine info.
	minStackTraceLen = 12
	// Length of the "goroutine " prefix.
	goroutinePrefixLen = 10
)

var (
	Logger        zerolog.Logger
	goroutinePool sync.Pool
)

func init() {
	goroutinePool.New = func() interface{} {
		return make([]byte, minStackBufSize)
	}

	Logger = New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, zerolog.InfoLevel)
	log.Logger = Logger
}

// goroutineID returns the numeric id of the calling goroutine, or "unknown".
func goroutineID() string {
	buf, ok := goroutinePool.Get().([]byte)
	if !ok {
		return "unknown"
	}
	defer goroutinePool.Put(buf) //nolint:staticcheck // buf is a slice, this is the correct usage

	stackLen := runtime.Stack(buf, false)
	if stackLen < minStackTraceLen {
		return "unknown"
	}

	idx := goroutinePrefixLen
	start := idx
	for idx < stackLen && buf[idx] >= '0' && buf[idx] <= '9' {
		idx++
	}

	if idx > start {
		return string(buf[start:idx])
	}
	return "unknown"
}

// New builds a logger writing to out that tags every event with a timestamp
// and the goroutine id of the caller.
func New(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger().
		Hook(zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
			e.Str("goid", goroutineID())
		}))
}

// Info starts an info level event.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Error starts an error level event.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Warn starts a warning level event.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Debug starts a debug level event.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Fatal starts a fatal event; sending it exits the process.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// SetDebugMode switches the logger to debug level.
func SetDebugMode() {
	Logger = Logger.Level(zerolog.DebugLevel)
	log.Logger = Logger
}

// SetLevel switches the logger to the named level ("debug", "info", "warn", ...).
// An empty name leaves the level untouched.
func SetLevel(name string) error {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return nil
	}

	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return err
	}

	Logger = Logger.Level(level)
	log.Logger = Logger
	return nil
}

package pkg

import (
	"log"
	"os"
)

// Leveled logging for the server surface; the engine core stays silent.
// Levels gate at call time rather than by swapping writers, so tests can
// flip the level without touching logger state.

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelErrOnly
	LogLevelDebug
)

var log_level = LogLevelErrOnly

func SetLogLevel(level LogLevel) { log_level = level }

var (
	out_logger = log.New(os.Stdout, "", log.LstdFlags)
	err_logger = log.New(os.Stderr, "", log.LstdFlags)
)

func emit(min LogLevel, l *log.Logger, tag string, v []any) {
	if log_level < min {
		return
	}
	l.Println(append([]any{tag}, v...)...)
}

func InfoLog(v ...any)  { emit(LogLevelDebug, out_logger, "INFO:", v) }
func WarnLog(v ...any)  { emit(LogLevelDebug, out_logger, "WARN:", v) }
func DebugLog(v ...any) { emit(LogLevelDebug, out_logger, "DEBUG:", v) }
func ErrorLog(v ...any) { emit(LogLevelErrOnly, err_logger, "ERROR:", v) }

// FatalLog reports and exits regardless of the configured level.
func FatalLog(v ...any) {
	err_logger.Fatalln(append([]any{"FATAL:"}, v...)...)
}

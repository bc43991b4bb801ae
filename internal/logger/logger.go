package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarning
	LogLevelError
)

var (
	output       io.Writer = os.Stderr
	noColor      bool
	base         zerolog.Logger
	currentLevel = LogLevelInfo
)

func init() {
	configure()
}

func configure() {
	writer := zerolog.ConsoleWriter{
		Out:        output,
		NoColor:    noColor,
		TimeFormat: "15:04:05",
	}
	base = zerolog.New(writer).Level(zerolog.TraceLevel).With().Timestamp().Logger()
}

// SetLevel sets the minimum log level to display
func SetLevel(level LogLevel) {
	currentLevel = level
}

// SetOutput sets the output destination for all log lines.
// Non-terminal writers get plain, uncolored output.
func SetOutput(w io.Writer) {
	output = w
	noColor = !isTerminal(w)
	configure()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelWarning:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func tagPrefix(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return fmt.Sprintf("[%s] ", strings.Join(tags, "]["))
}

func emit(level LogLevel, tags []string, format string, v ...interface{}) {
	if level < currentLevel {
		return
	}
	base.WithLevel(zerologLevel(level)).Msg(tagPrefix(tags) + fmt.Sprintf(format, v...))
}

// Debug logs a diagnostic message, shown only with --verbose
func Debug(format string, v ...interface{}) {
	emit(LogLevelDebug, nil, format, v...)
}

// Info logs an informational message
func Info(format string, v ...interface{}) {
	emit(LogLevelInfo, nil, format, v...)
}

// InfoTagged logs an informational message with tags
func InfoTagged(tags []string, format string, v ...interface{}) {
	emit(LogLevelInfo, tags, format, v...)
}

// Warning logs a warning message
func Warning(format string, v ...interface{}) {
	emit(LogLevelWarning, nil, format, v...)
}

// WarningTagged logs a warning message with tags
func WarningTagged(tags []string, format string, v ...interface{}) {
	emit(LogLevelWarning, tags, format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	emit(LogLevelError, nil, format, v...)
}

// ErrorTagged logs an error message with tags
func ErrorTagged(tags []string, format string, v ...interface{}) {
	emit(LogLevelError, tags, format, v...)
}

// DryRun logs an action that safe mode skipped. It ignores the level filter.
func DryRun(format string, v ...interface{}) {
	DryRunTagged(nil, format, v...)
}

// DryRunTagged logs a skipped action with tags
func DryRunTagged(tags []string, format string, v ...interface{}) {
	base.Info().Msg("[DRY RUN] " + tagPrefix(tags) + fmt.Sprintf(format, v...))
}

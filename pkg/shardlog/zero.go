package shardlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var Zero = NewZeroLogger("")

// NewZeroLogger builds the console logger used by every package of the module.
// An empty filepath means stdout.
func NewZeroLogger(filepath string) *zerolog.Logger {
	_, writer, err := newWriter(filepath)
	if err != nil {
		writer = os.Stdout
	}
	output := zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	return &logger
}

// NewJSONLogger is used when the output is consumed by a log shipper rather than a human.
func NewJSONLogger(w io.Writer) *zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Logger()
	return &logger
}

func UpdateZeroLogLevel(logLevel string) error {
	level, err := parseLevel(logLevel)
	if err != nil {
		return err
	}
	zeroLogger := Zero.With().Logger().Level(level)
	Zero = &zeroLogger
	return nil
}

// ReloadLogger switches the global logger to a new file, keeping the current level.
func ReloadLogger(filepath string) {
	if filepath == "" {
		return // stdout, nothing to reopen
	}
	level := Zero.GetLevel()
	l := NewZeroLogger(filepath).Level(level)
	Zero = &l
}

func parseLevel(level string) (zerolog.Level, error) {
	switch level {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info", "":
		return zerolog.InfoLevel, nil
	case "warning", "warn":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "fatal":
		return zerolog.FatalLevel, nil
	case "disabled":
		return zerolog.Disabled, nil
	default:
		return zerolog.InfoLevel, errUnknownLevel(level)
	}
}

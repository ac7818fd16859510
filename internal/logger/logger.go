package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/bounswe/bounswe2025group8-sub001/internal/config"
)

// New создает логгер процесса. Неизвестный уровень трактуется как info.
func New(cfg config.LogConfig) zerolog.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

func NewWithWriter(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "helpboard").
		Logger()
}

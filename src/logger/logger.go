package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lob-engine/src/config"
)

var Logger zerolog.Logger
var logFile *os.File

// InitLogger builds the process logger from cfg and installs it as the
// zerolog global. An unknown level falls back to info; a file that cannot be
// opened is an error.
func InitLogger(cfg config.LogConfig) error {
	return initLogger(cfg, os.Stdout)
}

func initLogger(cfg config.LogConfig, stdout io.Writer) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	CloseLogger()
	if cfg.File != "" {
		logFile, err = os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logFile = nil
			return fmt.Errorf("open log file %s: %w", cfg.File, err)
		}
	}

	var writers []io.Writer

	if cfg.Format == "pretty" {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        stdout,
			TimeFormat: time.RFC3339,
		})
	} else {
		writers = append(writers, stdout)
	}

	if logFile != nil {
		writers = append(writers, logFile)
	}

	Logger = zerolog.New(io.MultiWriter(writers...)).With().
		Timestamp().
		Logger()

	log.Logger = Logger

	if logFile != nil {
		Logger.Info().
			Str("log_file", cfg.File).
			Str("log_level", level.String()).
			Msg("Logger initialized - writing to console and file")
	} else {
		Logger.Info().
			Str("log_level", level.String()).
			Msg("Logger initialized - writing to console only")
	}
	return nil
}

func CloseLogger() {
	if logFile != nil {
		_ = logFile.Sync()
		_ = logFile.Close()
		logFile = nil
	}
}

func GetLogger() zerolog.Logger {
	return Logger
}

// Component returns the process logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Package logging builds the zap loggers injected into sf-push components.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tdambrin/sf-push/domain"
)

const (
	// FormatJSON renders one JSON object per entry.
	FormatJSON = "json"
	// FormatConsole renders human readable entries.
	FormatConsole = "console"
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // stdout, stderr, or file path
}

// ParseLevel returns the level named by s, or info when s is not a level.
func ParseLevel(s string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// New builds a logger from cfg. Invalid levels fall back to info and any
// format other than console produces JSON.
func New(cfg Config) (*zap.Logger, error) {
	var config zap.Config
	if cfg.Format == FormatConsole {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	config.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	if cfg.OutputPath != "" {
		config.OutputPaths = []string{cfg.OutputPath}
	}

	return config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// Worksheets logs one entry per reconciled worksheet. Content is summarized
// by its length.
func Worksheets(logger *zap.Logger, worksheets []domain.Worksheet) {
	logger.Info("reconciled worksheets", zap.Int("count", len(worksheets)))
	for _, ws := range worksheets {
		logger.Info("worksheet",
			zap.String("name", ws.Name),
			zap.String("id", ws.ID),
			zap.String("folder", ws.FolderName),
			zap.String("content_type", ws.ContentType.String()),
			zap.Int("content_length", len(ws.Content)),
		)
	}
}

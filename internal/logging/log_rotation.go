package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

type RotationConfig struct {
	MaxSizeMB  int  `json:"max_size_mb"`
	MaxAgeDays int  `json:"max_age_days"`
	MaxBackups int  `json:"max_backups"`
	Compress   bool `json:"compress"`
}

func DefaultRotation() RotationConfig {
	return RotationConfig{
		MaxSizeMB:  50,
		MaxAgeDays: 14,
		MaxBackups: 5,
		Compress:   true,
	}
}

func newRotatingWriter(path string, rc RotationConfig) (*lumberjack.Logger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	if rc.MaxSizeMB <= 0 {
		rc.MaxSizeMB = DefaultRotation().MaxSizeMB
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rc.MaxSizeMB,
		MaxAge:     rc.MaxAgeDays,
		MaxBackups: rc.MaxBackups,
		Compress:   rc.Compress,
	}, nil
}

package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/bladeshare/bladeshare/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		level   slog.Level
		enabled bool
	}{
		{"debug text", config.LoggingConfig{Level: "DEBUG", Format: "text"}, slog.LevelDebug, true},
		{"info json", config.LoggingConfig{Level: "INFO", Format: "json"}, slog.LevelDebug, false},
		{"error filters warn", config.LoggingConfig{Level: "ERROR", Format: "text"}, slog.LevelWarn, false},
		{"unknown level defaults to info", config.LoggingConfig{Level: "bogus", Format: "text"}, slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := New(tt.cfg)
			if log == nil {
				t.Fatal("New returned nil")
			}
			if got := log.Enabled(context.Background(), tt.level); got != tt.enabled {
				t.Errorf("Enabled(%v) = %v, want %v", tt.level, got, tt.enabled)
			}
		})
	}
}

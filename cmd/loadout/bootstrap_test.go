package main

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/jamesainslie/loadout/pkg/loadout/config"
	"github.com/jamesainslie/loadout/pkg/loadout/logging"
)

func TestParseRotationConfig(t *testing.T) {
	tests := []struct {
		name     string
		input    config.RotationConfig
		expected logging.RotationConfig
	}{
		{
			name: "binary units",
			input: config.RotationConfig{
				MaxSize:    "10MiB",
				MaxAge:     30,
				MaxBackups: 5,
				Daily:      true,
			},
			expected: logging.RotationConfig{
				MaxSize:    10 * 1024 * 1024,
				MaxAge:     30,
				MaxBackups: 5,
				Daily:      true,
			},
		},
		{
			name: "decimal units",
			input: config.RotationConfig{
				MaxSize:    "1GB",
				MaxAge:     7,
				MaxBackups: 3,
			},
			expected: logging.RotationConfig{
				MaxSize:    1_000_000_000,
				MaxAge:     7,
				MaxBackups: 3,
			},
		},
		{
			// Zero means the rotating writer applies its own default.
			name: "empty max_size defers to writer default",
			input: config.RotationConfig{
				MaxAge:     14,
				MaxBackups: 2,
				Daily:      true,
			},
			expected: logging.RotationConfig{
				MaxAge:     14,
				MaxBackups: 2,
				Daily:      true,
			},
		},
		{
			name: "invalid max_size defers to writer default",
			input: config.RotationConfig{
				MaxSize:    "invalid",
				MaxAge:     21,
				MaxBackups: 4,
			},
			expected: logging.RotationConfig{
				MaxAge:     21,
				MaxBackups: 4,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseRotationConfig(tt.input)
			if got != tt.expected {
				t.Errorf("parseRotationConfig() = %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	if got := exitCodeFor(errors.New("boom")); got != exitError {
		t.Errorf("exitCodeFor(generic) = %d, want %d", got, exitError)
	}
	wrapped := fmt.Errorf("checking root: %w", fs.ErrPermission)
	if got := exitCodeFor(wrapped); got != exitPermission {
		t.Errorf("exitCodeFor(permission) = %d, want %d", got, exitPermission)
	}
}

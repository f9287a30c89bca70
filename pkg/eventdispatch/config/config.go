package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// Settings configures a dispatcher.
type Settings struct {
	// Name identifies the dispatcher in logs, metrics and spans.
	// Default: a generated "dispatcher-<uuid>" name.
	Name string `yaml:"name" json:"name"`

	// SharedDelivery lets concurrent live deliveries to the same listener
	// overlap. Replay still excludes live delivery.
	// Default: false (live deliveries to one listener are serialized)
	SharedDelivery bool `yaml:"shared_delivery" json:"shared_delivery"`

	// Metrics enables the OpenTelemetry metrics recorder.
	Metrics bool `yaml:"metrics" json:"metrics"`

	// Tracing enables OpenTelemetry spans for dispatch and registration.
	Tracing bool `yaml:"tracing" json:"tracing"`

	// LogLevel is the minimum level logged by the dispatcher: debug, info,
	// warn or error. Empty means the logger's own level.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{}
}

// Validate checks the settings for values that cannot be applied.
func (s Settings) Validate() error {
	if _, err := s.Level(); err != nil {
		return err
	}
	if strings.TrimSpace(s.Name) != s.Name {
		return fmt.Errorf("name %q has surrounding whitespace", s.Name)
	}
	return nil
}

// Level parses LogLevel. An empty LogLevel yields slog.LevelInfo.
func (s Settings) Level() (slog.Level, error) {
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// HasLevel reports whether a log level was configured.
func (s Settings) HasLevel() bool {
	return s.LogLevel != ""
}

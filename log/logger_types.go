package log

import (
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	timestampFormat = "02/01/2006 15:04:05"

	defaultFileName   = "margin.log"
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

var (
	globalLogConfig = func() *Config {
		c := GenDefaultSettings()
		return &c
	}()
	// read/write mutex for logger
	mu = &sync.RWMutex{}
)

// Config holds configuration settings loaded from the client config
type Config struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	SubLoggerConfig `mapstructure:",squash" yaml:",inline"`

	// JSON switches the formatter to structured JSON lines
	JSON         bool              `mapstructure:"json" yaml:"json"`
	FileSettings FileConfig        `mapstructure:"file" yaml:"file"`
	SubLoggers   []SubLoggerConfig `mapstructure:"subloggers" yaml:"subloggers,omitempty"`
}

// SubLoggerConfig holds sub logger configuration settings. Level is a pipe
// separated list such as "INFO|WARN|ERROR" and Output is a pipe separated
// list of console, stdout, stderr or file.
type SubLoggerConfig struct {
	Name   string `mapstructure:"name" yaml:"name,omitempty"`
	Level  string `mapstructure:"level" yaml:"level"`
	Output string `mapstructure:"output" yaml:"output"`
}

// FileConfig holds rotating file output settings
type FileConfig struct {
	FileName   string `mapstructure:"filename" yaml:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Levels flags for each sub logger type
type Levels struct {
	Info, Debug, Warn, Error bool
}

// SubLogger defines a named logging subsystem with its own levels and output
type SubLogger struct {
	name   string
	levels Levels
	entry  *logrus.Entry
}

package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	errSubLoggerAlreadyRegistered = errors.New("sub logger already registered")
	errEmptyLoggerName            = errors.New("cannot have empty logger name")
	errUnhandledOutputWriter      = errors.New("unhandled output writer")
	errLogFileNameRequired        = errors.New("log file name required for file output")

	// fileWriter is shared between every sub logger writing to file so a
	// single rotation policy applies
	fileWriter *lumberjack.Logger
	// overrideWriter redirects all output, used by tests
	overrideWriter io.Writer
)

// GenDefaultSettings returns default logger settings
func GenDefaultSettings() Config {
	return Config{
		Enabled: true,
		SubLoggerConfig: SubLoggerConfig{
			Level:  "INFO|WARN|ERROR",
			Output: "console",
		},
		FileSettings: FileConfig{
			FileName:   defaultFileName,
			MaxSizeMB:  defaultMaxSizeMB,
			MaxBackups: defaultMaxBackups,
			MaxAgeDays: defaultMaxAgeDays,
		},
	}
}

// SetupGlobalLogger applies the supplied config to every registered sub
// logger. Sub loggers without an explicit entry inherit the global level and
// output.
func SetupGlobalLogger(c *Config) error {
	if c == nil {
		return errors.New("nil logger config")
	}
	mu.Lock()
	defer mu.Unlock()

	if fileWriter != nil {
		_ = fileWriter.Close()
		fileWriter = nil
	}
	cpy := *c
	cpy.SubLoggers = append([]SubLoggerConfig(nil), c.SubLoggers...)
	globalLogConfig = &cpy

	overrides := make(map[string]SubLoggerConfig, len(c.SubLoggers))
	for i := range c.SubLoggers {
		overrides[strings.ToUpper(c.SubLoggers[i].Name)] = c.SubLoggers[i]
	}
	for name, sl := range subLoggers {
		sc := c.SubLoggerConfig
		if o, ok := overrides[name]; ok {
			if o.Level != "" {
				sc.Level = o.Level
			}
			if o.Output != "" {
				sc.Output = o.Output
			}
		}
		if err := configureSubLogger(sl, sc); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// NewSubLogger allows for a new sub logger to be registered by a package
// outside of this one, inheriting the current global settings
func NewSubLogger(name string) (*SubLogger, error) {
	if name == "" {
		return nil, errEmptyLoggerName
	}
	name = strings.ToUpper(name)
	mu.Lock()
	defer mu.Unlock()
	if _, ok := subLoggers[name]; ok {
		return nil, fmt.Errorf("%w: %s", errSubLoggerAlreadyRegistered, name)
	}
	sl := &SubLogger{name: name}
	if err := configureSubLogger(sl, globalLogConfig.SubLoggerConfig); err != nil {
		return nil, err
	}
	subLoggers[name] = sl
	return sl, nil
}

// SetOutput redirects every sub logger to w regardless of configured outputs.
// Pass nil to restore the configured writers.
func SetOutput(w io.Writer) error {
	mu.Lock()
	overrideWriter = w
	mu.Unlock()
	return SetupGlobalLogger(currentConfig())
}

func currentConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	cpy := *globalLogConfig
	return &cpy
}

func registerNewSubLogger(name string) *SubLogger {
	sl := &SubLogger{
		name:   name,
		levels: splitLevel("INFO|WARN|ERROR"),
		entry:  newLogrus(os.Stdout, false).WithField("sublogger", name),
	}
	subLoggers[name] = sl
	return sl
}

// configureSubLogger must be called with mu held
func configureSubLogger(sl *SubLogger, sc SubLoggerConfig) error {
	w, err := getWriters(&sc)
	if err != nil {
		return err
	}
	sl.levels = splitLevel(sc.Level)
	if !globalLogConfig.Enabled {
		sl.levels = Levels{}
	}
	sl.entry = newLogrus(w, globalLogConfig.JSON).WithField("sublogger", sl.name)
	return nil
}

func newLogrus(w io.Writer, jsonFormat bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	// level filtering is done per sub logger
	l.SetLevel(logrus.DebugLevel)
	if jsonFormat {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
			DisableColors:   true,
		})
	}
	return l
}

// getWriters returns a io.Writer combining all configured outputs
func getWriters(s *SubLoggerConfig) (io.Writer, error) {
	if overrideWriter != nil {
		return overrideWriter, nil
	}
	outputs := strings.Split(s.Output, "|")
	writers := make([]io.Writer, 0, len(outputs))
	for _, o := range outputs {
		switch strings.ToLower(strings.TrimSpace(o)) {
		case "", "console", "stdout":
			writers = append(writers, os.Stdout)
		case "stderr":
			writers = append(writers, os.Stderr)
		case "file":
			fw, err := getFileWriter()
			if err != nil {
				return nil, err
			}
			writers = append(writers, fw)
		default:
			return nil, fmt.Errorf("%w: %s", errUnhandledOutputWriter, o)
		}
	}
	if len(writers) == 1 {
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func getFileWriter() (io.Writer, error) {
	if fileWriter != nil {
		return fileWriter, nil
	}
	fs := globalLogConfig.FileSettings
	if fs.FileName == "" {
		return nil, errLogFileNameRequired
	}
	fileWriter = &lumberjack.Logger{
		Filename:   fs.FileName,
		MaxSize:    fs.MaxSizeMB,
		MaxBackups: fs.MaxBackups,
		MaxAge:     fs.MaxAgeDays,
		Compress:   fs.Compress,
	}
	return fileWriter, nil
}

func splitLevel(level string) Levels {
	var l Levels
	for _, s := range strings.Split(level, "|") {
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "DEBUG":
			l.Debug = true
		case "INFO":
			l.Info = true
		case "WARN":
			l.Warn = true
		case "ERROR":
			l.Error = true
		}
	}
	return l
}

// CloseLogger flushes and closes any open log file
func CloseLogger() error {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

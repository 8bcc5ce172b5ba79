package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/thrasher-corp/binancemargin/exchanges/account"
	"github.com/thrasher-corp/binancemargin/log"
	"gopkg.in/yaml.v3"
)

var (
	errNilConfig            = errors.New("nil config")
	errInvalidAPIURL        = errors.New("invalid api url")
	errInvalidStreamURL     = errors.New("invalid stream url")
	errRecvWindowOutOfRange = errors.New("recv window out of range")
	errConfigFileExists     = errors.New("config file already exists")
)

// DefaultConfig returns a config populated with default values
func DefaultConfig() *Config {
	return &Config{
		Exchange: Exchange{
			Name:        DefaultExchange,
			APIURL:      DefaultAPIURL,
			StreamURL:   DefaultStreamURL,
			RecvWindow:  DefaultRecvWindow,
			HTTPTimeout: defaultHTTPTimeout,
			UserAgent:   defaultUserAgent,
			RateLimit:   true,
		},
		Logging: log.GenDefaultSettings(),
	}
}

// Load reads the config file at path, if any, and applies MARGIN_ prefixed
// environment overrides such as MARGIN_EXCHANGE_API_KEY. Variables found in
// the supplied env files, or ./.env when none are given, are exported first
// without replacing variables already set.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		log.Debugf(log.ConfigMgr, "Using config file %s", v.ConfigFileUsed())
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.CheckValues(); err != nil {
		return nil, err
	}
	return c, nil
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		err := godotenv.Load()
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can resolve overrides for
// keys absent from the config file
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("exchange.name", d.Exchange.Name)
	v.SetDefault("exchange.api_url", d.Exchange.APIURL)
	v.SetDefault("exchange.stream_url", d.Exchange.StreamURL)
	v.SetDefault("exchange.api_key", "")
	v.SetDefault("exchange.api_secret", "")
	v.SetDefault("exchange.recv_window", d.Exchange.RecvWindow)
	v.SetDefault("exchange.http_timeout", d.Exchange.HTTPTimeout)
	v.SetDefault("exchange.user_agent", d.Exchange.UserAgent)
	v.SetDefault("exchange.verbose", d.Exchange.Verbose)
	v.SetDefault("exchange.rate_limit", d.Exchange.RateLimit)
	v.SetDefault("exchange.generate_client_order_ids", d.Exchange.GenerateClientOrderIDs)
	v.SetDefault("exchange.validation.allow_redundant_order_identifiers", false)
	v.SetDefault("exchange.validation.allow_from_id_with_time_range", false)

	v.SetDefault("logging.enabled", d.Logging.Enabled)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("logging.json", d.Logging.JSON)
	v.SetDefault("logging.file.filename", d.Logging.FileSettings.FileName)
	v.SetDefault("logging.file.max_size_mb", d.Logging.FileSettings.MaxSizeMB)
	v.SetDefault("logging.file.max_backups", d.Logging.FileSettings.MaxBackups)
	v.SetDefault("logging.file.max_age_days", d.Logging.FileSettings.MaxAgeDays)
	v.SetDefault("logging.file.compress", d.Logging.FileSettings.Compress)
}

// CheckValues validates the config, filling unset optional values with
// defaults
func (c *Config) CheckValues() error {
	if c == nil {
		return errNilConfig
	}
	if err := c.Exchange.CheckValues(); err != nil {
		return err
	}
	c.CheckLoggerConfig()
	return nil
}

// CheckValues validates exchange endpoints and request timing
func (e *Exchange) CheckValues() error {
	if e.Name == "" {
		e.Name = DefaultExchange
	}
	if e.APIURL == "" {
		e.APIURL = DefaultAPIURL
	}
	if err := checkURL(e.APIURL, errInvalidAPIURL, "http", "https"); err != nil {
		return err
	}
	if e.StreamURL == "" {
		e.StreamURL = DefaultStreamURL
	}
	if err := checkURL(e.StreamURL, errInvalidStreamURL, "ws", "wss"); err != nil {
		return err
	}
	e.APIURL = strings.TrimSuffix(e.APIURL, "/")
	e.StreamURL = strings.TrimSuffix(e.StreamURL, "/")

	if e.RecvWindow == 0 {
		e.RecvWindow = DefaultRecvWindow
	}
	if e.RecvWindow < 0 || e.RecvWindow > MaxRecvWindow {
		return fmt.Errorf("%w: %s must be between 1ms and %s", errRecvWindowOutOfRange, e.RecvWindow, MaxRecvWindow)
	}
	if e.HTTPTimeout <= 0 {
		log.Warnf(log.ConfigMgr, "Exchange %s HTTP timeout value not set, defaulting to %v.", e.Name, defaultHTTPTimeout)
		e.HTTPTimeout = defaultHTTPTimeout
	}
	if e.UserAgent == "" {
		e.UserAgent = defaultUserAgent
	}
	if e.APIKey == "" || e.APISecret == "" {
		log.Warnf(log.ConfigMgr, "Exchange %s authenticated API support disabled due to empty API key or secret", e.Name)
	}
	return nil
}

func checkURL(raw string, cause error, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w %q: %w", cause, raw, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%w %q: scheme must be one of %v", cause, raw, schemes)
}

// CheckLoggerConfig fills missing logger values with defaults
func (c *Config) CheckLoggerConfig() {
	d := log.GenDefaultSettings()
	if c.Logging.Level == "" {
		c.Logging.Level = d.Level
	}
	if c.Logging.Output == "" {
		c.Logging.Output = d.Output
	}
	if c.Logging.FileSettings.FileName == "" {
		c.Logging.FileSettings.FileName = d.FileSettings.FileName
	}
	if c.Logging.FileSettings.MaxSizeMB <= 0 {
		c.Logging.FileSettings.MaxSizeMB = d.FileSettings.MaxSizeMB
	}
}

// Credentials returns the configured API credentials
func (e *Exchange) Credentials() account.Credentials {
	return account.Credentials{Key: e.APIKey, Secret: e.APISecret}
}

// WriteTemplate writes a default config to path. It refuses to replace an
// existing file.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", errConfigFileExists, path)
	}
	b, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

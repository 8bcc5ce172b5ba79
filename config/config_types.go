package config

import (
	"time"

	"github.com/thrasher-corp/binancemargin/log"
)

// Constants declared here are filename strings and defaults
const (
	File               = "config.yaml"
	EnvPrefix          = "MARGIN"
	DefaultExchange    = "Binance"
	DefaultAPIURL      = "https://api.binance.com"
	DefaultStreamURL   = "wss://stream.binance.com:9443/ws"
	DefaultRecvWindow  = 5 * time.Second
	MaxRecvWindow      = time.Minute
	defaultHTTPTimeout = 15 * time.Second
	defaultUserAgent   = "binancemargin/1.0"
)

// Config is the overarching object that holds the client configuration
type Config struct {
	Exchange Exchange   `mapstructure:"exchange" yaml:"exchange"`
	Logging  log.Config `mapstructure:"logging" yaml:"logging"`
}

// Exchange holds venue endpoints, credentials and request behaviour
type Exchange struct {
	Name        string        `mapstructure:"name" yaml:"name"`
	APIURL      string        `mapstructure:"api_url" yaml:"api_url"`
	StreamURL   string        `mapstructure:"stream_url" yaml:"stream_url"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	APISecret   string        `mapstructure:"api_secret" yaml:"api_secret"`
	RecvWindow  time.Duration `mapstructure:"recv_window" yaml:"recv_window"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent" yaml:"user_agent"`
	Verbose     bool          `mapstructure:"verbose" yaml:"verbose"`
	RateLimit   bool          `mapstructure:"rate_limit" yaml:"rate_limit"`

	// GenerateClientOrderIDs fills newClientOrderId with a UUID when the
	// caller leaves it empty
	GenerateClientOrderIDs bool            `mapstructure:"generate_client_order_ids" yaml:"generate_client_order_ids"`
	Validation             ValidationRules `mapstructure:"validation" yaml:"validation"`
}

// ValidationRules toggles request parameter combinations the venue accepts
// but which are rejected locally by default
type ValidationRules struct {
	// AllowRedundantOrderIdentifiers permits orderId and origClientOrderId
	// together on cancel and status queries
	AllowRedundantOrderIdentifiers bool `mapstructure:"allow_redundant_order_identifiers" yaml:"allow_redundant_order_identifiers"`

	// AllowFromIDWithTimeRange permits fromId together with startTime or
	// endTime on trade history queries
	AllowFromIDWithTimeRange bool `mapstructure:"allow_from_id_with_time_range" yaml:"allow_from_id_with_time_range"`
}

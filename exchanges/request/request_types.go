package request

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultTimeout bounds a single round trip when no timeout option is
	// supplied
	DefaultTimeout = 15 * time.Second
	userAgent      = "User-Agent"
)

var (
	// ErrRequestSystemIsNil is returned when a nil Requester is used
	ErrRequestSystemIsNil = errors.New("request system is nil")
	// ErrRateLimiterAlreadyDisabled is returned when disabling twice
	ErrRateLimiterAlreadyDisabled = errors.New("rate limiter already disabled")
	// ErrDelayNotAllowed is returned when a rate limit wait is required but
	// the context forbids delays
	ErrDelayNotAllowed = errors.New("delay not allowed")
)

// Requester sends HTTP requests on behalf of an exchange, applying endpoint
// rate limits. It never retries; every SendPayload call makes at most one
// round trip.
type Requester struct {
	name               string
	client             *resty.Client
	limiter            RateLimitDefinitions
	disableRateLimiter int32
	userAgent          string
	timeout            time.Duration
	transport          http.RoundTripper
}

// RequesterOption is a function option for a Requester
type RequesterOption func(*Requester)

// Item is a single request to be executed by the Requester
type Item struct {
	Method string
	// Path is the absolute URL without query string
	Path string
	// Query is the already encoded query string, sent verbatim
	Query string
	// Body is sent verbatim when not empty
	Body    string
	Headers map[string]string
	Verbose bool
	// BeforeSend runs after any rate limit wait and immediately before the
	// round trip. A returned error aborts the request and is passed back to
	// the caller untouched.
	BeforeSend func() error
}

// Response is the raw outcome of a round trip that reached the server
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// TransportError reports a failure to complete a round trip: connection
// errors, timeouts and context cancellation
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

package request

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/thrasher-corp/binancemargin/log"
)

var (
	errRequestItemNil   = errors.New("request item is nil")
	errInvalidPath      = errors.New("invalid path")
	errInvalidMethod    = errors.New("invalid method")
	errServiceNameUnset = errors.New("service name unset")
)

// New returns a new Requester
func New(name string, opts ...RequesterOption) (*Requester, error) {
	if name == "" {
		return nil, errServiceNameUnset
	}
	r := &Requester{
		name:    name,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(r)
	}

	r.client = resty.New().
		SetTimeout(r.timeout).
		SetRetryCount(0).
		SetLogger(restyLogger{name: name})
	if r.transport != nil {
		r.client.SetTransport(r.transport)
	}
	if r.userAgent != "" {
		r.client.SetHeader(userAgent, r.userAgent)
	}
	return r, nil
}

// WithLimiter sets the endpoint rate limit definitions
func WithLimiter(def RateLimitDefinitions) RequesterOption {
	return func(r *Requester) {
		r.limiter = def
	}
}

// WithTransport replaces the underlying HTTP transport, used for recorded
// test fixtures and proxies
func WithTransport(rt http.RoundTripper) RequesterOption {
	return func(r *Requester) {
		r.transport = rt
	}
}

// WithTimeout sets the per request timeout
func WithTimeout(d time.Duration) RequesterOption {
	return func(r *Requester) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request
func WithUserAgent(ua string) RequesterOption {
	return func(r *Requester) {
		r.userAgent = ua
	}
}

// Name returns the requester service name
func (r *Requester) Name() string {
	return r.name
}

// SendPayload waits on the endpoint rate limit and executes a single round
// trip. Non 2xx statuses are not errors at this layer; the raw status and
// body are returned for decoding.
func (r *Requester) SendPayload(ctx context.Context, ep EndpointLimit, item *Item) (*Response, error) {
	if r == nil {
		return nil, ErrRequestSystemIsNil
	}
	if err := item.validate(); err != nil {
		return nil, err
	}

	if err := r.InitiateRateLimit(ctx, ep); err != nil {
		return nil, &TransportError{Err: pkgerrors.Wrapf(err, "%s rate limit wait", r.name)}
	}

	if item.BeforeSend != nil {
		if err := item.BeforeSend(); err != nil {
			return nil, err
		}
	}

	verbose := IsVerbose(ctx, item.Verbose)
	if verbose {
		// query and headers carry credentials and are never logged
		log.Debugf(log.RequestSys, "%s request: %s %s", r.name, item.Method, item.Path)
	}

	req := r.client.R().SetContext(ctx)
	if len(item.Headers) > 0 {
		req.SetHeaders(item.Headers)
	}
	if item.Body != "" {
		req.SetBody(item.Body)
	}
	target := item.Path
	if item.Query != "" {
		target += "?" + item.Query
	}

	start := time.Now()
	resp, err := req.Execute(item.Method, target)
	if err != nil {
		return nil, &TransportError{Err: pkgerrors.Wrapf(err, "%s %s %s", r.name, item.Method, item.Path)}
	}

	if verbose {
		log.Debugf(log.RequestSys, "%s response: %s %s status %d, %d bytes in %s",
			r.name, item.Method, item.Path, resp.StatusCode(), len(resp.Body()), time.Since(start))
	}
	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Header:     resp.Header(),
	}, nil
}

func (i *Item) validate() error {
	if i == nil {
		return errRequestItemNil
	}
	if i.Path == "" {
		return errInvalidPath
	}
	switch i.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return nil
	default:
		return fmt.Errorf("%w: %q", errInvalidMethod, i.Method)
	}
}

// restyLogger routes resty's internal messages to the request sub logger
type restyLogger struct {
	name string
}

func (l restyLogger) Errorf(format string, v ...any) {
	log.Errorf(log.RequestSys, l.name+" "+format, v...)
}

func (l restyLogger) Warnf(format string, v ...any) {
	log.Warnf(log.RequestSys, l.name+" "+format, v...)
}

func (l restyLogger) Debugf(format string, v ...any) {
	log.Debugf(log.RequestSys, l.name+" "+format, v...)
}

package binance

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/thrasher-corp/binancemargin/common/clock"
	"github.com/thrasher-corp/binancemargin/common/crypto"
	"github.com/thrasher-corp/binancemargin/exchanges/account"
)

const (
	apiKeyHeader      = "X-MBX-APIKEY"
	contentTypeHeader = "Content-Type"
	formContentType   = "application/x-www-form-urlencoded"

	defaultRecvWindow = 5 * time.Second
	maxRecvWindow     = time.Minute
)

// SignedRequest is a fully authenticated request ready for transport.
// Query or Body carries the canonical payload, including the signature for
// signed operations.
type SignedRequest struct {
	Operation  Operation
	Method     string
	Path       string
	Query      string
	Body       string
	Headers    map[string]string
	Timestamp  time.Time
	RecvWindow time.Duration
}

// Build validates params against the operation rules and produces an
// authenticated request. Signed operations get recvWindow (params value,
// else recvWindow, else 5s) and a timestamp from clk, overwriting any caller
// supplied timestamp. Params are encoded in lexical key order, the
// documented canonical form, and signed with HMAC-SHA256. Identical inputs
// and clock readings yield byte identical requests.
func Build(op Operation, params url.Values, creds account.Credentials, clk clock.Clock, recvWindow time.Duration) (*SignedRequest, error) {
	if err := checkParams(op, params); err != nil {
		return nil, err
	}

	credErr := creds.CheckKey()
	if op.Security == SecuritySigned && credErr == nil {
		credErr = creds.CheckSigning()
	}
	if credErr != nil {
		return nil, &ValidationError{Operation: op.Name, Field: "credentials", Err: fmt.Errorf("%w: %w", errCredentials, credErr)}
	}

	payload := make(url.Values, len(params)+3)
	for k, v := range params {
		payload[k] = append([]string(nil), v...)
	}
	payload.Del("signature")

	sr := &SignedRequest{
		Operation: op,
		Method:    op.Method,
		Path:      op.Path,
		Headers:   map[string]string{apiKeyHeader: creds.Key},
	}

	var canonical string
	if op.Security == SecuritySigned {
		rw, err := resolveRecvWindow(op, payload.Get("recvWindow"), recvWindow)
		if err != nil {
			return nil, err
		}
		if clk == nil {
			clk = clock.System
		}
		sr.RecvWindow = rw
		sr.Timestamp = clk.Now()
		payload.Set("recvWindow", strconv.FormatInt(rw.Milliseconds(), 10))
		payload.Set("timestamp", strconv.FormatInt(sr.Timestamp.UnixMilli(), 10))

		canonical = payload.Encode()
		hmacSigned, err := crypto.GetHMAC(crypto.HashSHA256, []byte(canonical), []byte(creds.Secret))
		if err != nil {
			return nil, err
		}
		canonical += "&signature=" + crypto.HexEncodeToString(hmacSigned)
	} else {
		canonical = payload.Encode()
	}

	switch op.Method {
	case http.MethodGet, http.MethodDelete:
		sr.Query = canonical
	default:
		sr.Body = canonical
		if canonical != "" {
			sr.Headers[contentTypeHeader] = formContentType
		}
	}
	return sr, nil
}

func resolveRecvWindow(op Operation, param string, fallback time.Duration) (time.Duration, error) {
	rw := fallback
	if param != "" {
		ms, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			return 0, &ValidationError{Operation: op.Name, Field: "recvWindow", Err: fmt.Errorf("%w: %w", errRecvWindowOutOfRange, err)}
		}
		rw = time.Duration(ms) * time.Millisecond
	}
	if rw == 0 {
		rw = defaultRecvWindow
	}
	if rw < time.Millisecond || rw > maxRecvWindow {
		return 0, &ValidationError{Operation: op.Name, Field: "recvWindow", Err: errRecvWindowOutOfRange}
	}
	return rw, nil
}

// checkParams enforces the operation's required, one-of and exclusive
// parameter rules
func checkParams(op Operation, params url.Values) error {
	for _, k := range op.Required {
		if params.Get(k) == "" {
			return &ValidationError{Operation: op.Name, Field: k, Err: ErrMissingParameter}
		}
	}
	for _, group := range op.OneOf {
		found := false
		for _, k := range group {
			if params.Get(k) != "" {
				found = true
				break
			}
		}
		if !found {
			return &ValidationError{Operation: op.Name, Field: strings.Join(group, "|"), Err: ErrMissingParameter}
		}
	}
	for _, e := range op.Exclusive {
		if params.Get(e.Params[0]) != "" && params.Get(e.Params[1]) != "" {
			return &ValidationError{Operation: op.Name, Field: strings.Join(e.Params[:], "|"), Err: ErrExclusiveParameters}
		}
	}
	return nil
}

// Expired reports whether a signed request can no longer be accepted by
// the venue at now
func (s *SignedRequest) Expired(now time.Time) bool {
	if s.Timestamp.IsZero() || s.RecvWindow <= 0 {
		return false
	}
	return now.After(s.Timestamp.Add(s.RecvWindow))
}

// Params returns the request parameters without the signature
func (s *SignedRequest) Params() url.Values {
	raw := s.Query
	if raw == "" {
		raw = s.Body
	}
	v, err := url.ParseQuery(raw)
	if err != nil {
		return url.Values{}
	}
	v.Del("signature")
	return v
}

// String describes the request without credentials or signature
func (s *SignedRequest) String() string {
	if s.Timestamp.IsZero() {
		return fmt.Sprintf("%s %s %s", s.Operation.Name, s.Method, s.Path)
	}
	return fmt.Sprintf("%s %s %s timestamp=%d recvWindow=%s", s.Operation.Name, s.Method, s.Path, s.Timestamp.UnixMilli(), s.RecvWindow)
}

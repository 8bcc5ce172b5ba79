package binance

import (
	"bytes"
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/buger/jsonparser"
)

var emptyObject = json.RawMessage(`{}`)

// Decode classifies a venue response. Successful payloads are returned
// verbatim for mapping; every other outcome is an *APIError. An empty 2xx
// body decodes as an empty object.
func Decode(status int, body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		if len(trimmed) == 0 {
			return emptyObject, nil
		}
		// some endpoints report failures inside a 2xx envelope
		if code, msg, ok := errorEnvelope(trimmed); ok && code != 0 && code != http.StatusOK && msg != "" {
			return nil, &APIError{Code: code, Message: msg, HTTPStatus: status}
		}
		return json.RawMessage(trimmed), nil
	}

	if code, msg, ok := errorEnvelope(trimmed); ok {
		if msg == "" {
			msg = excerpt(trimmed, status)
		}
		return nil, &APIError{Code: code, Message: msg, HTTPStatus: status}
	}
	return nil, &APIError{Code: UnknownErrorCode, Message: excerpt(trimmed, status), HTTPStatus: status}
}

// errorEnvelope extracts {code,msg} from an object root
func errorEnvelope(body []byte) (code int64, msg string, ok bool) {
	if len(body) == 0 || body[0] != '{' {
		return 0, "", false
	}
	code, err := jsonparser.GetInt(body, "code")
	if err != nil {
		return 0, "", false
	}
	msg, err = jsonparser.GetString(body, "msg")
	if err != nil {
		msg = ""
	}
	return code, msg, true
}

func excerpt(body []byte, status int) string {
	if len(body) == 0 {
		return http.StatusText(status)
	}
	if len(body) > errorExcerptLimit {
		cut := errorExcerptLimit
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		return string(body[:cut])
	}
	return string(body)
}

package shortener

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrRequest           = errors.New("shortener request failed")
	ErrMalformedResponse = errors.New("malformed shortener response")
)

// Result is a successful shortening.
type Result struct {
	ShortURL string `json:"short_url"`
	LongURL  string `json:"long_url"`
}

// UpstreamError means the API answered but did not shorten the link.
type UpstreamError struct {
	Reason     string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return "shortener: " + e.Reason
}

// apiResponse mirrors every field the API is known to send. Anything may be
// missing or of an unexpected type, so the loose fields stay raw.
type apiResponse struct {
	Success json.RawMessage `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`
}

type apiData struct {
	ShortURL json.RawMessage `json:"short_url"`
	LongURL  json.RawMessage `json:"long_url"`
}

// decodeResponse classifies a response body:
//
//	success true + data.short_url   -> *Result
//	any other JSON value            -> *UpstreamError (message, error or "HTTP <status>")
//	not JSON                        -> ErrMalformedResponse
func decodeResponse(status int, body []byte) (*Result, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: status %d", ErrMalformedResponse, status)
	}

	var resp apiResponse
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
	}

	if string(resp.Success) == "true" {
		var data apiData
		if json.Unmarshal(resp.Data, &data) == nil {
			if short := asString(data.ShortURL); short != "" {
				return &Result{ShortURL: short, LongURL: asString(data.LongURL)}, nil
			}
		}
	}

	return nil, &UpstreamError{Reason: failureReason(status, resp), StatusCode: status}
}

func failureReason(status int, resp apiResponse) string {
	if r := reasonText(resp.Message); r != "" {
		return r
	}
	if r := reasonText(resp.Error); r != "" {
		return r
	}
	return fmt.Sprintf("HTTP %d", status)
}

// reasonText renders a message/error field for humans. Strings are used as is,
// empty or falsy values are skipped, other JSON values are shown compactly.
func reasonText(raw json.RawMessage) string {
	v := strings.TrimSpace(string(raw))
	switch v {
	case "", "null", "false", "0", `""`:
		return ""
	}
	if s := asString(raw); s != "" {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	return v
}

func asString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

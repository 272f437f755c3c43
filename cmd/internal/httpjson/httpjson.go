// Package httpjson holds the JSON request and response conventions shared by every ozran endpoint:
// the {"error":{"code","message"}} envelope and strict single-object request decoding.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DefaultMaxBodyBytes bounds request bodies when callers pass no limit.
const DefaultMaxBodyBytes = 1 << 20

// Error codes shared across handlers.
const (
	CodeInvalidRequest = "invalid_request"
	CodeBodyTooLarge   = "payload_too_large"
	CodeRateLimited    = "rate_limited"
	CodeServerError    = "server_error"
	MsgInvalidBody     = "invalid request body"
	MsgBodyTooLarge    = "request body too large"
	MsgTooManyRequests = "Too many requests, please try again later."
)

var (
	ErrEmptyBody    = errors.New("empty body")
	ErrTrailingData = errors.New("extra data after JSON object")
	ErrBodyTooLarge = errors.New("body too large")
)

// ErrorBody is the inner error object.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope is the body of every JSON error response.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// Write encodes v as an uncacheable JSON response.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope.
func WriteError(w http.ResponseWriter, status int, code, msg string) {
	Write(w, status, ErrorEnvelope{Error: ErrorBody{Code: code, Message: msg}})
}

// Decode reads exactly one JSON object into dst. Unknown fields are rejected.
// maxBytes <= 0 means DefaultMaxBodyBytes.
func Decode(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrEmptyBody
	}
	defer func() { _ = r.Body.Close() }()

	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return classify(err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err != nil {
			if c := classify(err); errors.Is(c, ErrBodyTooLarge) {
				return c
			}
		}
		return ErrTrailingData
	}
	return nil
}

// WriteDecodeError answers a Decode failure: 413 for oversized bodies, 400 otherwise.
func WriteDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrBodyTooLarge) {
		WriteError(w, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, MsgBodyTooLarge)
		return
	}
	WriteError(w, http.StatusBadRequest, CodeInvalidRequest, MsgInvalidBody)
}

func classify(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, tooLarge.Limit)
	}
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}
	return err
}

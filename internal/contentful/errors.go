// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package contentful

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors. StatusError values match the status-specific ones through
// errors.Is.
var (
	ErrTokenNotSet  = errors.New("access token is not set")
	ErrSpaceNotSet  = errors.New("space is not set")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")

	// ErrMalformedResponse is returned for a 2xx response whose body is not
	// an entries collection.
	ErrMalformedResponse = errors.New("malformed response")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.RequestID != "" {
		msg += " (request " + e.RequestID + ")"
	}
	return msg
}

// Is maps status codes onto the sentinel errors.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// ErrorContext describes the request an error belongs to.
type ErrorContext struct {
	Space       string
	Environment string
	ContentType string
	Operation   string
}

// Friendly wraps err with the request context and a hint for the common
// misconfigurations. The original error stays reachable through errors.Is/As.
func Friendly(err error, ec ErrorContext) error {
	if err == nil {
		return nil
	}

	var where []string
	if ec.Space != "" {
		where = append(where, "space="+ec.Space)
	}
	if ec.Environment != "" {
		where = append(where, "environment="+ec.Environment)
	}
	if ec.ContentType != "" {
		where = append(where, "content_type="+ec.ContentType)
	}

	op := ec.Operation
	if op == "" {
		op = "request"
	}

	hint := ""
	switch {
	case errors.Is(err, ErrUnauthorized):
		hint = " (check CONTENTFUL_ACCESS_TOKEN or token in showcase.yaml)"
	case errors.Is(err, ErrNotFound):
		hint = " (check --space and --env)"
	case errors.Is(err, ErrRateLimited):
		hint = " (lower rate_limit in showcase.yaml)"
	}

	return fmt.Errorf("failed to %s [%s]%s: %w", op, strings.Join(where, " "), hint, err)
}

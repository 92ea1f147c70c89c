// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package foundry

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the data plane.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// newAPIError decodes either error envelope the service uses:
// {"error":{"code","message"}} or a bare {"code","message"}.
func newAPIError(status int, method, path string, body []byte) *APIError {
	e := &APIError{StatusCode: status, Method: method, Path: path}

	var env struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error != nil {
			e.Code, e.Message = env.Error.Code, env.Error.Message
		} else {
			e.Code, e.Message = env.Code, env.Message
		}
	} else if s := strings.TrimSpace(string(body)); s != "" && len(s) < 512 {
		e.Message = s
	}
	return e
}

// NotDeletedError is a delete the service answered with deleted=false.
type NotDeletedError struct {
	Path string
}

func (e *NotDeletedError) Error() string {
	return fmt.Sprintf("delete %s: service reported not deleted", e.Path)
}

// StatusCode returns the HTTP status of err, or 0 when it is not an
// *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err carries an HTTP 404 from the service.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// ErrorContext describes what was being attempted when an error occurred.
type ErrorContext struct {
	Endpoint  string
	Operation string
	Resource  string
	ID        string
}

// Friendly wraps err with the context and an operator hint for the common
// status codes.
func Friendly(err error, ec ErrorContext) error {
	if err == nil {
		return nil
	}

	target := ec.Resource
	if ec.ID != "" {
		target = fmt.Sprintf("%s %s", ec.Resource, ec.ID)
	}

	var hint string
	switch StatusCode(err) {
	case http.StatusUnauthorized:
		hint = "authentication failed; run 'az login' or check AZURE_* credentials"
	case http.StatusForbidden:
		hint = "access denied; the identity needs the Azure AI User role on the project"
	case http.StatusNotFound:
		hint = fmt.Sprintf("%s not found at %s; check --endpoint and the id", target, ec.Endpoint)
	case http.StatusTooManyRequests:
		hint = "throttled by the service; retry later or lower the page size"
	}

	if hint == "" {
		return fmt.Errorf("failed to %s (%s): %w", ec.Operation, target, err)
	}
	return fmt.Errorf("failed to %s (%s): %s: %w", ec.Operation, target, hint, err)
}

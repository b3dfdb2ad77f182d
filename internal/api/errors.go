package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUnauthorized is matched by every 401 response.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("status %d", e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.Code == http.StatusUnauthorized
}

func newStatusError(resp *http.Response) error {
	se := &StatusError{Code: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &payload) == nil && payload.Error != "" {
		se.Message = payload.Error
	}
	return se
}

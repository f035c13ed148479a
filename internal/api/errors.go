package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrMalformed    = errors.New("malformed response")
)

// StatusError is any non-2xx answer. The client does not distinguish not-found, conflict and
// server errors; only 401 is special (errors.Is(err, ErrUnauthorized)).
type StatusError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, http.StatusText(e.Status), e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Message is the server-supplied detail, or the status text when there is none.
func (e *StatusError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return http.StatusText(e.Status)
}

// DetailOf returns the server message carried by err, or err.Error().
func DetailOf(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

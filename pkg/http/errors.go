package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Problem is one entry of an error envelope's data.
type Problem struct {
	Code    string                 `json:"code"`
	Field   string                 `json:"field,omitempty"`
	Message string                 `json:"message"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// AppError carries the status and problems written for a failed request.
type AppError struct {
	Status     int
	Problems   []Problem
	RetryAfter time.Duration
	Err        error
}

func (e *AppError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Message)
	}
	msg := strings.Join(msgs, "; ")
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error { return e.Err }

// Code is the code of the first problem, or "" when there is none.
func (e *AppError) Code() string {
	if len(e.Problems) == 0 {
		return ""
	}
	return e.Problems[0].Code
}

// WithError attaches the cause, which is logged but never serialised.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// WithParam sets a param on the first problem.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if len(e.Problems) == 0 {
		return e
	}
	p := &e.Problems[0]
	if p.Params == nil {
		p.Params = make(map[string]interface{})
	}
	p.Params[key] = value
	return e
}

func NewAppError(status int, code, message string) *AppError {
	return &AppError{Status: status, Problems: []Problem{{Code: code, Message: message}}}
}

// Invalid is a 400 listing every offending field.
func Invalid(problems ...Problem) *AppError {
	return &AppError{Status: http.StatusBadRequest, Problems: problems}
}

func NotFound(format string, a ...interface{}) *AppError {
	return NewAppError(http.StatusNotFound, "ERR_NOT_FOUND", fmt.Sprintf(format, a...))
}

// RateLimited is a 429 advising the client when to retry.
func RateLimited(retryAfter time.Duration) *AppError {
	e := NewAppError(http.StatusTooManyRequests, "ERR_RATE_LIMITED", "rate limit exceeded, retry later")
	e.RetryAfter = retryAfter
	return e
}

// Unavailable is a 503; retryAfter, when positive, is sent as Retry-After.
func Unavailable(message string, retryAfter time.Duration) *AppError {
	e := NewAppError(http.StatusServiceUnavailable, "ERR_UNAVAILABLE", message)
	e.RetryAfter = retryAfter
	return e
}

func Timeout(message string) *AppError {
	return NewAppError(http.StatusGatewayTimeout, "ERR_TIMEOUT", message)
}

func Internal(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, "ERR_INTERNAL", message)
}

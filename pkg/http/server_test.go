package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	err := NotFound("no data for %s", "ZZZZ").WithParam("symbol", "ZZZZ")
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Equal(t, "ERR_NOT_FOUND", err.Code())
	assert.Equal(t, "no data for ZZZZ", err.Error())
	assert.Equal(t, "ZZZZ", err.Problems[0].Params["symbol"])

	cause := errors.New("boom")
	wrapped := Internal("internal error").WithError(cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "internal error: boom", wrapped.Error())
}

func TestFail(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, Fail(c, RateLimited(1500*time.Millisecond)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"ERR_RATE_LIMITED"`)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, Fail(c, Invalid(
		Problem{Code: "ERR_REQUIRED", Field: "symbol", Message: "symbol is required"},
		Problem{Code: "ERR_MAX", Field: "type", Message: "type must be at most 30 characters"},
	)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var env struct {
		Status int       `json:"status"`
		Data   []Problem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusBadRequest, env.Status)
	require.Len(t, env.Data, 2)
	assert.Equal(t, "type", env.Data[1].Field)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, Fail(c, errors.New("db down")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestServerUnknownRouteUsesEnvelope(t *testing.T) {
	srv := NewServer(nil, WithMetrics(prometheus.NewRegistry(), ""))
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_HTTP"`)
}

func TestHealthz(t *testing.T) {
	srv := NewServer(nil,
		WithMetrics(prometheus.NewRegistry(), ""),
		WithHealthCheck("redis", func(context.Context) error { return nil }),
		WithHealthCheck("clickhouse", func(context.Context) error { return errors.New("connection refused") }),
		WithHealthCheck("ignored", nil),
	)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Dependencies["redis"])
	assert.Equal(t, "connection refused", body.Dependencies["clickhouse"])
	assert.NotContains(t, body.Dependencies, "ignored")
}

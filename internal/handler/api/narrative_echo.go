package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"FinNarrative/internal/domain/models"
	"FinNarrative/internal/service/cache"
	svcmetrics "FinNarrative/internal/service/metrics"
	xhttp "FinNarrative/pkg/http"
	xlogger "FinNarrative/pkg/logger"
)

// providerRetryAfter is advertised on 503s caused by upstream providers.
const providerRetryAfter = 30 * time.Second

const (
	endpointNarrative  = "narrative"
	endpointRiskRaw    = "risk_predict"
	endpointRiskSymbol = "risk_symbol"
)

type NarrativeService interface {
	Generate(ctx context.Context, symbol string, profile models.InvestorProfile) (models.NarrativeReport, error)
}

type RiskService interface {
	PredictRiskRaw(ctx context.Context, raw map[string]any) (models.RiskAssessment, error)
	PredictRiskForSymbol(ctx context.Context, symbol string) (models.SymbolRisk, error)
}

// Limiter admits or rejects one request for a client key.
type Limiter interface {
	Allow(key string) bool
}

// NarrativeEchoHandler serves the narrative and risk endpoints.
type NarrativeEchoHandler struct {
	logger    *xlogger.Logger
	narrative NarrativeService
	risk      RiskService
	limiter   Limiter
	cache     cache.BytesCache
	cacheTTL  time.Duration
	metrics   *svcmetrics.Endpoint
}

type HandlerOption func(*NarrativeEchoHandler)

func WithLimiter(l Limiter) HandlerOption {
	return func(h *NarrativeEchoHandler) { h.limiter = l }
}

// WithResponseCache caches GET narrative envelopes for ttl.
func WithResponseCache(c cache.BytesCache, ttl time.Duration) HandlerOption {
	return func(h *NarrativeEchoHandler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

func WithEndpointMetrics(m *svcmetrics.Endpoint) HandlerOption {
	return func(h *NarrativeEchoHandler) { h.metrics = m }
}

func NewNarrativeEchoHandler(logger *xlogger.Logger, narrative NarrativeService, risk RiskService, opts ...HandlerOption) *NarrativeEchoHandler {
	h := &NarrativeEchoHandler{logger: logger.Component("api"), narrative: narrative, risk: risk}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var _ xhttp.Handler = (*NarrativeEchoHandler)(nil)

func (h *NarrativeEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.rateLimit)
	g.POST("/narrative", h.PostNarrative)
	g.GET("/narrative/:symbol", h.GetNarrative)
	g.POST("/risk/predict", h.PredictRisk)
	g.GET("/risk/:symbol", h.SymbolRisk)
}

func (h *NarrativeEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			h.metrics.Limited(c.Path())
			return xhttp.Fail(c, xhttp.RateLimited(time.Second))
		}
		return next(c)
	}
}

func (h *NarrativeEchoHandler) PostNarrative(c echo.Context) error {
	start := time.Now()
	req := &models.NarrativeRequest{}
	if err := xhttp.Bind(c, req); err != nil {
		return h.fail(c, endpointNarrative, start, err)
	}
	profile := h.profile(req.InvestorProfile)

	rep, err := h.narrative.Generate(c.Request().Context(), req.Symbol, profile)
	if err != nil {
		return h.fail(c, endpointNarrative, start, err)
	}
	h.metrics.Observe(endpointNarrative, time.Since(start).Seconds(), "")
	return xhttp.OK(c, rep)
}

// GetNarrative is PostNarrative with the profile in the query string. Its
// envelopes are cached per symbol and profile.
func (h *NarrativeEchoHandler) GetNarrative(c echo.Context) error {
	start := time.Now()
	req := &models.NarrativeQuery{}
	if err := xhttp.Bind(c, req); err != nil {
		return h.fail(c, endpointNarrative, start, err)
	}
	sym, err := models.NormalizeSymbol(req.Symbol)
	if err != nil {
		return h.fail(c, endpointNarrative, start, err)
	}
	profile := h.profile(req.ProfileRequest)
	ctx := c.Request().Context()

	key := cache.Key("narrative", sym, profile.Type, profile.TimeHorizon, profile.PrimaryGoal)
	if h.cache != nil {
		b, ok, err := h.cache.GetBytes(ctx, key)
		if err != nil {
			h.logger.Warn("response cache read failed", xlogger.String("key", key), xlogger.Error(err))
		}
		h.metrics.CacheLookup(endpointNarrative, ok)
		if ok {
			h.metrics.Observe(endpointNarrative, time.Since(start).Seconds(), "")
			return xhttp.Blob(c, b)
		}
	}

	rep, err := h.narrative.Generate(ctx, sym, profile)
	if err != nil {
		return h.fail(c, endpointNarrative, start, err)
	}
	h.metrics.Observe(endpointNarrative, time.Since(start).Seconds(), "")

	if h.cache == nil {
		return xhttp.OK(c, rep)
	}
	b, err := xhttp.Encode(rep)
	if err != nil {
		return h.fail(c, endpointNarrative, start, err)
	}
	if err := h.cache.SetBytes(ctx, key, b, h.cacheTTL); err != nil {
		h.logger.Warn("response cache write failed", xlogger.String("key", key), xlogger.Error(err))
	}
	return xhttp.Blob(c, b)
}

// PredictRisk scores a raw feature map. Numbers are decoded as json.Number
// so integers and numeric strings both validate.
func (h *NarrativeEchoHandler) PredictRisk(c echo.Context) error {
	start := time.Now()
	var raw map[string]any
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return h.fail(c, endpointRiskRaw, start, xhttp.Invalid(xhttp.Problem{
			Code:    "ERR_BIND",
			Message: "request body must be a JSON object of feature values",
		}))
	}

	a, err := h.risk.PredictRiskRaw(c.Request().Context(), raw)
	if err != nil {
		return h.fail(c, endpointRiskRaw, start, err)
	}
	h.metrics.Observe(endpointRiskRaw, time.Since(start).Seconds(), "")
	return xhttp.OK(c, a)
}

func (h *NarrativeEchoHandler) SymbolRisk(c echo.Context) error {
	start := time.Now()
	req := &models.RiskSymbolRequest{}
	if err := xhttp.Bind(c, req); err != nil {
		return h.fail(c, endpointRiskSymbol, start, err)
	}
	r, err := h.risk.PredictRiskForSymbol(c.Request().Context(), req.Symbol)
	if err != nil {
		return h.fail(c, endpointRiskSymbol, start, err)
	}
	h.metrics.Observe(endpointRiskSymbol, time.Since(start).Seconds(), "")
	return xhttp.OK(c, r)
}

func (h *NarrativeEchoHandler) profile(p models.ProfileRequest) models.InvestorProfile {
	profile, replaced := p.Profile()
	if len(replaced) > 0 {
		h.logger.Debug("unrecognised profile values replaced by defaults", xlogger.Strings("fields", replaced))
	}
	return profile
}

// fail maps use case errors onto the response envelope.
func (h *NarrativeEchoHandler) fail(c echo.Context, endpoint string, start time.Time, err error) error {
	appErr, kind := h.classify(endpoint, err)
	h.metrics.Observe(endpoint, time.Since(start).Seconds(), kind)
	return xhttp.Fail(c, appErr)
}

func (h *NarrativeEchoHandler) classify(endpoint string, err error) (*xhttp.AppError, string) {
	var appErr *xhttp.AppError
	var ves models.ValidationErrors
	var ve *models.ValidationError
	var du *models.DataUnavailableError
	var pu *models.ProviderUnavailableError
	switch {
	case errors.As(err, &appErr):
		if appErr.Status == http.StatusBadRequest {
			return appErr, "validation"
		}
		return appErr, "http"
	case errors.As(err, &ves):
		return invalid(ves...).WithError(err), "validation"
	case errors.As(err, &ve):
		return invalid(ve).WithError(err), "validation"
	case errors.As(err, &du):
		h.logger.Info("no market data", xlogger.String("symbol", du.Symbol), xlogger.Error(err))
		return xhttp.NotFound("no market data available for %s", du.Symbol).WithError(err), "not_found"
	case errors.Is(err, models.ErrDataUnavailable):
		return xhttp.NotFound("no market data available").WithError(err), "not_found"
	case errors.As(err, &pu):
		h.logger.Warn("market data provider unavailable", xlogger.String("symbol", pu.Symbol), xlogger.Error(err))
		return xhttp.Unavailable("market data provider unavailable, retry later", providerRetryAfter).WithError(err), "upstream"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		h.logger.Warn("request timed out", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		return xhttp.Timeout("request timed out").WithError(err), "timeout"
	}
	h.logger.Error(fmt.Sprintf("%s failed", endpoint), xlogger.Error(err))
	return xhttp.Internal("internal error").WithError(err), "internal"
}

func invalid(errs ...*models.ValidationError) *xhttp.AppError {
	problems := make([]xhttp.Problem, 0, len(errs))
	for _, e := range errs {
		problems = append(problems, xhttp.Problem{
			Code:    "ERR_INVALID",
			Field:   e.Field,
			Message: fmt.Sprintf("%s %s", e.Field, e.Message),
		})
	}
	return xhttp.Invalid(problems...)
}

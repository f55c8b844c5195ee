package risk

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"FinNarrative/internal/domain/models"
	"FinNarrative/internal/domain/repository"
	domsvc "FinNarrative/internal/domain/service"
	applogger "FinNarrative/pkg/logger"
)

// LoadState tracks the scorer's one-time model load.
type LoadState int32

const (
	StateUnloaded LoadState = iota
	StatePresent
	StateAbsent
)

func (s LoadState) String() string {
	switch s {
	case StatePresent:
		return "present"
	case StateAbsent:
		return "absent"
	default:
		return "unloaded"
	}
}

const (
	noteNoModel        = "No trained risk model available; heuristic risk score used."
	noteInferenceError = "Risk model failed on this input; heuristic risk score used."
)

// Scorer turns RiskFeatures into a RiskAssessment. The model is loaded
// lazily on first use, exactly once per Scorer, and concurrent first
// callers all observe the same outcome.
type Scorer struct {
	cfg     Config
	source  ModelSource
	log     *applogger.Logger
	metrics repository.Metrics

	once  sync.Once
	model Model
	state atomic.Int32
}

var _ domsvc.RiskScorer = (*Scorer)(nil)

func NewScorer(cfg Config, source ModelSource, log *applogger.Logger, metrics repository.Metrics) *Scorer {
	if source == nil {
		source = NewFileStore(cfg.ModelPath, cfg.Thresholds)
	}
	return &Scorer{cfg: cfg, source: source, log: log.Component("risk_scorer"), metrics: metrics}
}

func (s *Scorer) State() LoadState { return LoadState(s.state.Load()) }

// PredictRiskRaw validates an untyped feature map before scoring it.
func (s *Scorer) PredictRiskRaw(ctx context.Context, raw map[string]any) (models.RiskAssessment, error) {
	f, err := ParseFeatures(raw)
	if err != nil {
		return models.RiskAssessment{}, err
	}
	return s.PredictRisk(ctx, f), nil
}

// PredictRisk always returns an assessment, falling back to the heuristic
// when no model is loaded or the model fails on this input.
func (s *Scorer) PredictRisk(_ context.Context, f models.RiskFeatures) models.RiskAssessment {
	f = f.Clamped()

	m := s.ensureLoaded()
	if m == nil {
		s.recordFallback("no_model")
		return s.fallback(f, noteNoModel)
	}

	pred, err := infer(m, f)
	if err != nil {
		s.log.Warn("risk model inference failed, using heuristic",
			applogger.String("model_kind", m.Kind()),
			applogger.Error(err),
		)
		s.recordFallback("inference_error")
		return s.fallback(f, noteInferenceError)
	}

	a := models.RiskAssessment{
		RiskScore:     round4(pred.Score),
		InputFeatures: f,
		ModelUsed:     true,
	}
	a.RiskLevel = pred.Level
	if m.Kind() != KindClassifier {
		a.RiskLevel = s.cfg.Thresholds.Level(a.RiskScore)
	}
	a.Explanation = Explain(a.RiskLevel, f)
	s.recordAssessment(a)
	return a
}

func (s *Scorer) fallback(f models.RiskFeatures, note string) models.RiskAssessment {
	score := round4(Heuristic(f, s.cfg.Weights))
	level := s.cfg.Thresholds.Level(score)
	a := models.RiskAssessment{
		RiskScore:     score,
		RiskLevel:     level,
		InputFeatures: f,
		ModelUsed:     false,
		Fallback:      true,
		Note:          note,
		Explanation:   Explain(level, f),
	}
	s.recordAssessment(a)
	return a
}

func (s *Scorer) ensureLoaded() Model {
	s.once.Do(func() {
		timeout := s.cfg.LoadTimeout
		if timeout <= 0 {
			timeout = DefaultConfig().LoadTimeout
		}
		// The outcome is cached for the scorer's lifetime, so it must not
		// depend on any single caller's cancellation.
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		m, err := s.source.LoadModel(ctx)
		if err != nil || m == nil {
			s.state.Store(int32(StateAbsent))
			s.recordLoad(err)
			return
		}
		s.model = m
		s.state.Store(int32(StatePresent))
		s.log.Info("risk model loaded", applogger.String("model_kind", m.Kind()))
		if s.metrics != nil {
			s.metrics.RecordModelLoad("present")
		}
	})
	return s.model
}

func (s *Scorer) recordLoad(err error) {
	outcome := "absent"
	if err != nil && !errors.Is(err, ErrModelNotConfigured) {
		outcome = "error"
		s.log.Warn("risk model unavailable, heuristic scoring enabled", applogger.Error(err))
	} else {
		s.log.Info("no risk model configured, heuristic scoring enabled")
	}
	if s.metrics != nil {
		s.metrics.RecordModelLoad(outcome)
	}
}

func (s *Scorer) recordFallback(reason string) {
	if s.metrics != nil {
		s.metrics.RecordFallback(reason)
	}
}

func (s *Scorer) recordAssessment(a models.RiskAssessment) {
	if s.metrics != nil {
		s.metrics.RecordRiskAssessment(string(a.RiskLevel), a.ModelUsed)
	}
}

// infer runs one prediction, converting errors and panics into an
// InferenceError so the caller can pick the heuristic path.
func infer(m Model, f models.RiskFeatures) (pred Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			pred, err = Prediction{}, &InferenceError{Kind: m.Kind(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	pred, err = m.Predict(f)
	if err != nil {
		return Prediction{}, &InferenceError{Kind: m.Kind(), Err: err}
	}
	if math.IsNaN(pred.Score) || math.IsInf(pred.Score, 0) {
		return Prediction{}, &InferenceError{Kind: m.Kind(), Err: errors.New("non-finite score")}
	}
	return pred, nil
}

func round4(v float64) float64 {
	return decimal.NewFromFloat(models.Clamp01(v)).Round(4).InexactFloat64()
}

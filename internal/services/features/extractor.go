package features

import (
	"gonum.org/v1/gonum/stat"

	"FinNarrative/internal/domain/models"
)

// Config holds the calibration constants of the extractor.
type Config struct {
	Window             int
	VolatilityScale    float64
	TrendShift         float64
	TrendScale         float64
	TrendLookback      int
	NeutralVolumeSpike float64
}

func DefaultConfig() Config {
	return Config{
		Window:             20,
		VolatilityScale:    0.1,
		TrendShift:         0.05,
		TrendScale:         0.1,
		TrendLookback:      5,
		NeutralVolumeSpike: 0.5,
	}
}

// Extractor derives normalised RiskFeatures from a price history.
// It never fails: any numeric problem yields models.NeutralFeatures().
type Extractor struct {
	cfg Config
}

func NewExtractor(cfg Config) *Extractor {
	if cfg.VolatilityScale <= 0 {
		cfg.VolatilityScale = 0.1
	}
	if cfg.TrendScale <= 0 {
		cfg.TrendScale = 0.1
	}
	if cfg.TrendLookback <= 0 {
		cfg.TrendLookback = 5
	}
	return &Extractor{cfg: cfg}
}

// Extract computes features from chronological closing prices. Volume is
// not available here, so volume_spike is the configured neutral value.
func (e *Extractor) Extract(prices []float64) models.RiskFeatures {
	return e.extract(prices, nil)
}

// ExtractBars is Extract over daily bars; when every bar in the window has a
// positive volume, volume_spike is last volume over window mean, halved and
// clamped so that an average session maps to 0.5.
func (e *Extractor) ExtractBars(bars []models.DailyBar) models.RiskFeatures {
	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = b.Volume
	}
	return e.extract(models.Closes(bars), vols)
}

func (e *Extractor) extract(prices, volumes []float64) (out models.RiskFeatures) {
	defer func() {
		if r := recover(); r != nil {
			out = models.NeutralFeatures()
		}
	}()

	n := len(prices)
	if n < 2 {
		return models.NeutralFeatures()
	}
	w := EffectiveWindow(e.cfg.Window, n)
	start := n - w - 1
	if start < 0 {
		start = 0
	}
	returns, ok := SimpleReturns(prices[start:])
	if !ok || len(returns) == 0 {
		return models.NeutralFeatures()
	}

	vol := stat.StdDev(returns, nil)
	dd := MaxDrawdown(returns)

	recent := returns
	if len(recent) > e.cfg.TrendLookback {
		recent = recent[len(recent)-e.cfg.TrendLookback:]
	}
	trend := stat.Mean(recent, nil)

	f := models.RiskFeatures{
		Volatility:    vol / e.cfg.VolatilityScale,
		Drawdown:      dd,
		TrendStrength: (trend + e.cfg.TrendShift) / e.cfg.TrendScale,
		VolumeSpike:   e.volumeSpike(volumes, w),
	}
	if !f.Finite() {
		return models.NeutralFeatures()
	}
	return f.Clamped()
}

func (e *Extractor) volumeSpike(volumes []float64, w int) float64 {
	if w < 2 || len(volumes) < w {
		return e.cfg.NeutralVolumeSpike
	}
	window := volumes[len(volumes)-w:]
	for _, v := range window {
		if v <= 0 || !isFinite(v) {
			return e.cfg.NeutralVolumeSpike
		}
	}
	mean := stat.Mean(window, nil)
	if mean <= 0 {
		return e.cfg.NeutralVolumeSpike
	}
	return models.Clamp01(window[len(window)-1] / mean / 2)
}

// EffectiveWindow is the number of trailing returns used for n prices. It
// shrinks to min(max(2, n-1), n) when the history is shorter than window.
func EffectiveWindow(window, n int) int {
	if window >= 2 && window <= n-1 {
		return window
	}
	return min(max(2, n-1), n)
}

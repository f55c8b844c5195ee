package risk

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"FinNarrative/internal/domain/models"
)

var errNotNumeric = errors.New("not numeric")

// ParseFeatures validates an untyped feature map. Every required key must be
// present and coercible to a finite number; values are then clamped.
func ParseFeatures(raw map[string]any) (models.RiskFeatures, error) {
	var errs models.ValidationErrors
	vals := make([]float64, len(models.FeatureNames))
	for i, name := range models.FeatureNames {
		v, ok := raw[name]
		if !ok || v == nil {
			errs = append(errs, &models.ValidationError{Field: name, Message: "is required"})
			continue
		}
		f, err := toFloat(v)
		if err != nil {
			errs = append(errs, &models.ValidationError{Field: name, Message: "must be a finite number"})
			continue
		}
		vals[i] = f
	}
	if len(errs) > 0 {
		return models.RiskFeatures{}, errs
	}
	f := models.RiskFeatures{Volatility: vals[0], Drawdown: vals[1], TrendStrength: vals[2], VolumeSpike: vals[3]}
	return f.Clamped(), nil
}

func toFloat(v any) (float64, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, errNotNumeric
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, errNotNumeric
		}
		f = n
	default:
		return 0, errNotNumeric
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotNumeric
	}
	return f, nil
}

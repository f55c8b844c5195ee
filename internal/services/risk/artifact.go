package risk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"FinNarrative/internal/domain/models"
)

const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatMsgpack = "msgpack"
)

// Artifact is the serialised form of a trained model.
type Artifact struct {
	Kind         string      `json:"kind" yaml:"kind" msgpack:"kind"`
	Version      string      `json:"version,omitempty" yaml:"version,omitempty" msgpack:"version,omitempty"`
	Features     []string    `json:"features,omitempty" yaml:"features,omitempty" msgpack:"features,omitempty"`
	Classes      []string    `json:"classes,omitempty" yaml:"classes,omitempty" msgpack:"classes,omitempty"`
	Coefficients [][]float64 `json:"coefficients" yaml:"coefficients" msgpack:"coefficients"`
	Intercepts   []float64   `json:"intercepts" yaml:"intercepts" msgpack:"intercepts"`
	Link         string      `json:"link,omitempty" yaml:"link,omitempty" msgpack:"link,omitempty"`
}

// FormatFromPath picks a codec by file extension, sniffing the content when
// the extension is unknown.
func FormatFromPath(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".msgpack", ".mpk", ".mp":
		return FormatMsgpack
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatMsgpack
}

func DecodeArtifact(data []byte, format string) (*Artifact, error) {
	var a Artifact
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &a)
	case FormatYAML:
		err = yaml.Unmarshal(data, &a)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &a)
	default:
		return nil, fmt.Errorf("unsupported artifact format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s artifact: %w", format, err)
	}
	return &a, nil
}

func EncodeArtifact(a *Artifact, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.Marshal(a)
	case FormatYAML:
		return yaml.Marshal(a)
	case FormatMsgpack:
		return msgpack.Marshal(a)
	}
	return nil, fmt.Errorf("unsupported artifact format %q", format)
}

// Model resolves the artifact into a concrete model kind.
func (a *Artifact) Model(th Thresholds) (Model, error) {
	if len(a.Features) > 0 && !slices.Equal(a.Features, models.FeatureNames) {
		return nil, fmt.Errorf("artifact features %v do not match %v", a.Features, models.FeatureNames)
	}
	width := len(models.FeatureNames)
	for i, row := range a.Coefficients {
		if len(row) != width {
			return nil, fmt.Errorf("coefficient row %d has %d values, want %d", i, len(row), width)
		}
	}

	switch strings.ToLower(a.Kind) {
	case KindClassifier:
		if len(a.Classes) < 2 {
			return nil, fmt.Errorf("classifier needs at least 2 classes, got %d", len(a.Classes))
		}
		if len(a.Coefficients) != len(a.Classes) || len(a.Intercepts) != len(a.Classes) {
			return nil, fmt.Errorf("classifier shape mismatch: %d classes, %d coefficient rows, %d intercepts",
				len(a.Classes), len(a.Coefficients), len(a.Intercepts))
		}
		classes := make([]models.RiskLevel, len(a.Classes))
		for i, c := range a.Classes {
			lvl := models.RiskLevel(strings.ToUpper(strings.TrimSpace(c)))
			if lvl != models.RiskLow && lvl != models.RiskMedium && lvl != models.RiskHigh {
				return nil, fmt.Errorf("unknown class label %q", c)
			}
			classes[i] = lvl
		}
		return &Classifier{Classes: classes, Coefficients: a.Coefficients, Intercepts: a.Intercepts}, nil

	case KindRegressor:
		if len(a.Coefficients) != 1 || len(a.Intercepts) != 1 {
			return nil, fmt.Errorf("regressor needs one coefficient row and one intercept")
		}
		var logistic bool
		switch strings.ToLower(a.Link) {
		case "", "identity":
		case "logistic", "sigmoid":
			logistic = true
		default:
			return nil, fmt.Errorf("unknown regressor link %q", a.Link)
		}
		return &Regressor{Coefficients: a.Coefficients[0], Intercept: a.Intercepts[0], Logistic: logistic, Thresholds: th}, nil
	}
	return nil, fmt.Errorf("unknown model kind %q", a.Kind)
}

package risk

import (
	"context"
	"os"
)

// ModelSource produces the scorer's model. A nil model with an error means
// the model is absent.
type ModelSource interface {
	LoadModel(ctx context.Context) (Model, error)
}

// FileStore reads an artifact from the local filesystem.
type FileStore struct {
	Path       string
	Thresholds Thresholds
}

func NewFileStore(path string, th Thresholds) *FileStore {
	return &FileStore{Path: path, Thresholds: th}
}

func (s *FileStore) LoadModel(ctx context.Context) (Model, error) {
	if s.Path == "" {
		return nil, &ModelLoadError{Err: ErrModelNotConfigured}
	}

	type readResult struct {
		data []byte
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		b, err := os.ReadFile(s.Path)
		ch <- readResult{data: b, err: err}
	}()

	var res readResult
	select {
	case <-ctx.Done():
		return nil, &ModelLoadError{Path: s.Path, Err: ctx.Err()}
	case res = <-ch:
	}
	if res.err != nil {
		return nil, &ModelLoadError{Path: s.Path, Err: res.err}
	}

	art, err := DecodeArtifact(res.data, FormatFromPath(s.Path, res.data))
	if err != nil {
		return nil, &ModelLoadError{Path: s.Path, Err: err}
	}
	m, err := art.Model(s.Thresholds)
	if err != nil {
		return nil, &ModelLoadError{Path: s.Path, Err: err}
	}
	return m, nil
}

// Package store provides adapters for pipeline state storage backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/gcl-context/internal/domain"
)

// StateFileName is the state file inside the state directory.
const StateFileName = "state.yml"

// YAMLStateStore implements domain.PipelineStateStore on a YAML file.
type YAMLStateStore struct {
	path string
}

// NewYAMLStateStore creates a store for <stateDir>/state.yml. The directory is
// created on first write.
func NewYAMLStateStore(stateDir string) *YAMLStateStore {
	return &YAMLStateStore{
		path: filepath.Join(stateDir, StateFileName),
	}
}

// Path returns the state file location.
func (s *YAMLStateStore) Path() string {
	return s.path
}

// Load returns the persisted state, or the zero state if the file does not exist.
// Returns domain.ErrStateCorrupt if the file cannot be decoded.
func (s *YAMLStateStore) Load(_ context.Context) (domain.PipelineState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.PipelineState{}, nil
		}
		return domain.PipelineState{}, fmt.Errorf("failed to read pipeline state: %w", err)
	}

	var state domain.PipelineState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return domain.PipelineState{}, fmt.Errorf("%w: %s: %w", domain.ErrStateCorrupt, s.path, err)
	}
	if state.PipelineIID < 0 {
		return domain.PipelineState{}, fmt.Errorf("%w: %s: negative pipelineIid %d",
			domain.ErrStateCorrupt, s.path, state.PipelineIID)
	}
	return state, nil
}

// IncrementPipelineIID bumps the pipeline IID and persists the new state.
func (s *YAMLStateStore) IncrementPipelineIID(ctx context.Context) (domain.PipelineState, error) {
	state, err := s.Load(ctx)
	if err != nil {
		return domain.PipelineState{}, err
	}

	state.PipelineIID++
	if err := s.save(state); err != nil {
		return domain.PipelineState{}, err
	}
	return state, nil
}

// save writes state atomically via a temporary file in the same directory.
func (s *YAMLStateStore) save(state domain.PipelineState) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode pipeline state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, StateFileName+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write pipeline state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write pipeline state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace pipeline state: %w", err)
	}
	return nil
}

// Close releases any resources held by the store.
// The file is opened per operation, so this is a no-op.
func (s *YAMLStateStore) Close() error {
	return nil
}

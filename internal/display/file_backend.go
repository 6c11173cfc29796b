package display

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/outputctl/internal/logger"
	"gopkg.in/yaml.v3"
)

// fileBackend keeps the configuration in a YAML file, for saved layouts and
// headless use
type fileBackend struct {
	path string
}

func newFileBackend(path string) (Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("file backend needs a snapshot path")
	}
	return &fileBackend{path: path}, nil
}

// NewFileBackend opens the YAML snapshot at path
func NewFileBackend(path string) (Backend, error) {
	return newFileBackend(path)
}

func (f *fileBackend) Name() string {
	return "file"
}

func (f *fileBackend) Fetch(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	s := &Snapshot{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", f.path, err)
	}

	for _, o := range s.Outputs {
		if o.Scale == 0 {
			o.Scale = 1.0
		}
	}

	logger.Debugf("file backend: loaded %d output(s) from %s", len(s.Outputs), f.path)
	return s, nil
}

func (f *fileBackend) Apply(ctx context.Context, s *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	// Write next to the target so the rename stays on one filesystem
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".outputctl-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.path, err)
	}

	logger.Debugf("file backend: wrote %d output(s) to %s", len(s.Outputs), f.path)
	return nil
}

func (f *fileBackend) Close() error {
	return nil
}

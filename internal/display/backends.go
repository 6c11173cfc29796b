package display

import (
	"context"
	"fmt"

	"github.com/bnema/outputctl/internal/logger"
)

// Source hands out the current configuration
type Source interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// Sink persists a full, mutated configuration
type Sink interface {
	Apply(ctx context.Context, s *Snapshot) error
}

// Backend is a display-configuration service that is both source and sink
type Backend interface {
	Source
	Sink
	Name() string
	Close() error
}

// Options selects and parameterizes a backend
type Options struct {
	Name string // auto, kscreen, wlr, randr or file
	File string // snapshot path, file backend only
}

type backendFactory struct {
	name   string
	create func(ctx context.Context, opts Options) (Backend, error)
}

// Order of preference for "auto"
var autoBackends = []backendFactory{
	{"kscreen", func(ctx context.Context, _ Options) (Backend, error) { return newKScreenBackend(ctx) }},
	{"wlr", func(ctx context.Context, _ Options) (Backend, error) { return newWlrRandrBackend() }},
	{"randr", func(ctx context.Context, _ Options) (Backend, error) { return newRandrBackend() }},
}

// Open connects to the backend named in opts, or the first one that works
// when the name is "auto"
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Name {
	case "kscreen":
		return newKScreenBackend(ctx)
	case "wlr":
		return newWlrRandrBackend()
	case "randr":
		return newRandrBackend()
	case "file":
		return newFileBackend(opts.File)
	case "", "auto":
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Name)
	}

	for i, f := range autoBackends {
		logger.Debugf("display.Open: trying backend %d: %s", i, f.name)

		backend, err := f.create(ctx, opts)
		if err == nil {
			logger.Debugf("display.Open: using backend %s", f.name)
			return backend, nil
		}
		logger.Debugf("display.Open: backend %s failed: %v", f.name, err)
	}

	return nil, fmt.Errorf("no display backend available (tried kscreen, wlr, randr)")
}

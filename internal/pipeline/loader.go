package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/synop-etl/internal/domain"
)

// FanOutLoader loads each batch into every sink in order and stops at the
// first failure.
type FanOutLoader struct {
	sinks []namedLoader
}

type namedLoader struct {
	name   string
	loader BatchLoader
}

// NewFanOutLoader returns an empty loader; add sinks with With.
func NewFanOutLoader() *FanOutLoader {
	return &FanOutLoader{}
}

// With appends a sink. The name is used in errors.
func (f *FanOutLoader) With(name string, l BatchLoader) *FanOutLoader {
	f.sinks = append(f.sinks, namedLoader{name: name, loader: l})
	return f
}

// LoadBatch implements BatchLoader.
func (f *FanOutLoader) LoadBatch(ctx context.Context, reports []domain.SynopticReport) error {
	if len(reports) == 0 {
		return nil
	}
	for _, s := range f.sinks {
		if err := s.loader.LoadBatch(ctx, reports); err != nil {
			return fmt.Errorf("load %s: %w", s.name, err)
		}
	}
	return nil
}

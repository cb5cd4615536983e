package api

import (
	"context"
	"fmt"
	"sort"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Health(ctx context.Context) error
}

// Health is alive as long as the process serves requests and ready once
// every dependency answers.
type Health struct {
	Dependencies map[string]Pinger
}

func (h Health) Check(context.Context) error {
	return nil
}

func (h Health) Ready(ctx context.Context) error {
	names := make([]string, 0, len(h.Dependencies))
	for name := range h.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := h.Dependencies[name].Health(ctx); err != nil {
			return fmt.Errorf("%s not ready: %w", name, err)
		}
	}
	return nil
}

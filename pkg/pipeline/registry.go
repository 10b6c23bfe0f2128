package pipeline

import (
	"context"
	"errors"
	"sync"
)

// Registry tracks live pipelines so shutdown code can flush and close
// every connected brick in one call.
type Registry struct {
	mu      sync.Mutex
	members map[*Pipeline]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{members: make(map[*Pipeline]struct{})}
}

// Register adds p. Registering the same pipeline twice is harmless.
func (r *Registry) Register(p *Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[p] = struct{}{}
}

// Unregister removes p, typically when its brick disconnects.
func (r *Registry) Unregister(p *Pipeline) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, p)
}

// Len reports the number of registered pipelines.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// FlushAll waits for critical commands on every registered pipeline.
// Errors are joined so one stuck brick does not hide the others.
func (r *Registry) FlushAll(ctx context.Context) error {
	var errs []error
	for _, p := range r.snapshot() {
		if err := p.DrainCritical(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CloseAll flushes critical commands and closes every registered
// pipeline, then empties the registry.
func (r *Registry) CloseAll(ctx context.Context) error {
	errs := []error{r.FlushAll(ctx)}
	for _, p := range r.snapshot() {
		errs = append(errs, p.Close())
		r.Unregister(p)
	}
	return errors.Join(errs...)
}

func (r *Registry) snapshot() []*Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Pipeline, 0, len(r.members))
	for p := range r.members {
		out = append(out, p)
	}
	return out
}

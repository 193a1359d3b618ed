package metadata

import (
	"context"
	"fmt"

	"github.com/vmunix/trackarr/internal/library"
)

// Router dispatches queries to a provider by source.
type Router struct {
	providers map[library.Source]Provider
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{providers: make(map[library.Source]Provider)}
}

// Register sets the provider for a source, replacing any previous one.
func (r *Router) Register(source library.Source, p Provider) {
	r.providers[source] = p
}

// Metadata implements Provider.
func (r *Router) Metadata(ctx context.Context, q Query) (*Media, error) {
	p, ok := r.providers[q.Source]
	if !ok {
		return nil, fmt.Errorf("%s: %w", q.Source, ErrUnsupportedSource)
	}
	return p.Metadata(ctx, q)
}

// Supports reports whether a provider is registered for source.
func (r *Router) Supports(source library.Source) bool {
	_, ok := r.providers[source]
	return ok
}

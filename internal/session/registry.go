package session

import (
	"context"
	"sync"

	"github.com/taskdocs/agentic-web-ui/internal/models"
)

// Lister is the slice of the gateway the registry needs.
type Lister interface {
	ListDocuments(ctx context.Context) ([]models.Document, error)
}

// Registry caches the most recent document list fetched from the service. Refresh replaces the
// cache wholesale rather than merging, so documents deleted by another client disappear on the
// next refresh instead of lingering.
type Registry struct {
	lister Lister

	mu   sync.RWMutex
	docs []models.Document
}

// NewRegistry creates an empty registry backed by the given lister.
func NewRegistry(lister Lister) *Registry {
	return &Registry{lister: lister}
}

// Refresh re-fetches the document list and replaces the cache. On failure the previous cache is
// kept untouched.
func (r *Registry) Refresh(ctx context.Context) error {
	docs, err := r.lister.ListDocuments(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.docs = docs
	r.mu.Unlock()
	return nil
}

// Documents returns a copy of the cached list.
func (r *Registry) Documents() []models.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]models.Document, len(r.docs))
	copy(docs, r.docs)
	return docs
}

// Contains reports whether the cache currently lists the document id.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.docs {
		if d.ID == id {
			return true
		}
	}
	return false
}

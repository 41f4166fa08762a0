package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/teacurran/village-jobs/pkg/core"
	"github.com/teacurran/village-jobs/pkg/security"
)

// Registry holds the queue name → handler mapping and the metadata each
// handler declared at registration. Registration happens at startup;
// enqueueing and dispatch only ever read.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	handler core.Handler
	meta    core.Metadata
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// Register binds a handler to its declared metadata. Queue names must be
// alphanumeric (starting with a letter) and unique within the registry.
func (r *Registry) Register(meta core.Metadata, h core.Handler) error {
	if h == nil {
		return fmt.Errorf("jobs: handler for %q cannot be nil", meta.Queue)
	}
	if err := security.ValidateQueueName(meta.Queue); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[meta.Queue]; exists {
		return fmt.Errorf("%w: %q", core.ErrDuplicateQueue, meta.Queue)
	}
	r.entries[meta.Queue] = entry{handler: h, meta: meta}
	return nil
}

// MustRegister is like Register but panics on error. Intended for the
// startup wiring path where a misconfigured handler is fatal.
func (r *Registry) MustRegister(meta core.Metadata, h core.Handler) {
	if err := r.Register(meta, h); err != nil {
		panic(fmt.Sprintf("jobs: register %q: %v", meta.Queue, err))
	}
}

// Handler returns the handler registered for the queue, used at dispatch time.
func (r *Registry) Handler(queue string) (core.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[queue]
	if !ok {
		return nil, false
	}
	return e.handler, true
}

// Metadata returns the metadata declared for the queue, used at enqueue time.
func (r *Registry) Metadata(queue string) (core.Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[queue]
	if !ok {
		return core.Metadata{}, false
	}
	return e.meta, true
}

// Queues returns the registered queue names in sorted order.
func (r *Registry) Queues() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Package preview keeps revocable preview references for selected images.
//
// A Ref is the server-side counterpart of a browser object URL: it makes
// the bytes of a selected file reachable under /_preview/{id} until it is
// released. Each Ref must be released exactly once. Releasing twice is a
// defect and returns the coded error E202.
package preview

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/auralens/auralens/internal/errors"
)

// DefaultPrefix is the URL path previews are served under.
const DefaultPrefix = "/_preview/"

// Observer is notified about the preview lifecycle.
type Observer interface {
	PreviewCreated()
	PreviewReleased()
}

// Registry holds the live preview references of the process.
type Registry struct {
	prefix   string
	observer Observer

	mu   sync.RWMutex
	refs map[string]*Ref
}

// Option configures a Registry.
type Option func(*Registry)

// WithPrefix sets the URL path prefix (default "/_preview/").
func WithPrefix(prefix string) Option {
	return func(r *Registry) {
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		r.prefix = prefix
	}
}

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		prefix: DefaultPrefix,
		refs:   make(map[string]*Ref),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ref is a revocable handle to the bytes of one selected file.
type Ref struct {
	id        string
	name      string
	mediaType string
	data      []byte
	size      int
	registry  *Registry
	released  atomic.Bool
}

// Create registers data and returns a live reference to it.
func (r *Registry) Create(name, mediaType string, data []byte) *Ref {
	ref := &Ref{
		id:        uuid.NewString(),
		name:      name,
		mediaType: mediaType,
		data:      data,
		size:      len(data),
		registry:  r,
	}

	r.mu.Lock()
	r.refs[ref.id] = ref
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.PreviewCreated()
	}
	return ref
}

// Live returns the number of unreleased references.
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.refs)
}

// Lookup returns the live reference with the given ID.
func (r *Registry) Lookup(id string) (*Ref, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.refs[id]
	return ref, ok
}

// ID returns the reference ID.
func (ref *Ref) ID() string { return ref.id }

// Name returns the file name the preview was created for.
func (ref *Ref) Name() string { return ref.name }

// MediaType returns the declared media type.
func (ref *Ref) MediaType() string { return ref.mediaType }

// Size returns the payload size in bytes.
func (ref *Ref) Size() int { return ref.size }

// URL returns the path the preview is served under.
func (ref *Ref) URL() string {
	return ref.registry.prefix + ref.id
}

// Released reports whether Release has been called.
func (ref *Ref) Released() bool {
	return ref.released.Load()
}

// Release revokes the reference. After Release the URL answers 404.
func (ref *Ref) Release() error {
	if ref.released.Swap(true) {
		return errors.New("E202").
			WithDetail(fmt.Sprintf("preview %s (%s) was already released", ref.id, strconv.Quote(ref.name)))
	}

	r := ref.registry
	r.mu.Lock()
	delete(r.refs, ref.id)
	ref.data = nil
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.PreviewReleased()
	}
	return nil
}

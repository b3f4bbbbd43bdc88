// Package registry catalogs the known object types, resolves concrete types
// to their general category, and owns the per-category membership handlers.
package registry

import (
	"sort"
	"sync"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
	"github.com/GM-Alex/user-access-manager-sub006/internal/membership"
)

// Built-in concrete types registered by default.
var (
	defaultPostTypes  = []string{"post", "page", "attachment"}
	defaultTaxonomies = []string{"category", "post_tag"}
)

// Registry is safe for concurrent use. Type unions and validity lookups are
// memoized; registering a new type invalidates the memos so later queries
// see the addition without a restart.
type Registry struct {
	mu         sync.RWMutex
	postTypes  map[string]bool
	taxonomies map[string]bool
	pluggable  map[string]string // concrete custom type -> general type
	handlers   map[string]membership.Handler

	// memos, nil until first use
	objectTypes    []string
	allObjectTypes []string
	validTypes     map[string]bool
}

// New creates a registry pre-loaded with the built-in post types and
// taxonomies. Handlers are registered separately.
func New() *Registry {
	r := &Registry{
		postTypes:  map[string]bool{},
		taxonomies: map[string]bool{},
		pluggable:  map[string]string{},
		handlers:   map[string]membership.Handler{},
	}
	for _, t := range defaultPostTypes {
		r.postTypes[t] = true
	}
	for _, t := range defaultTaxonomies {
		r.taxonomies[t] = true
	}
	return r
}

// RegisterPostType adds a concrete post type at runtime.
func (r *Registry) RegisterPostType(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postTypes[name] = true
	r.dropMemos()
}

// RegisterTaxonomy adds a concrete taxonomy at runtime.
func (r *Registry) RegisterTaxonomy(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.taxonomies[name] = true
	r.dropMemos()
}

// RegisterHandler installs the membership handler for its general type.
// Handlers serving custom categories also register their concrete types.
func (r *Registry) RegisterHandler(h membership.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.GeneralType()] = h
	for _, t := range h.ObjectTypes() {
		r.pluggable[t] = h.GeneralType()
	}
	r.dropMemos()
}

// dropMemos must be called with the write lock held.
func (r *Registry) dropMemos() {
	r.objectTypes = nil
	r.allObjectTypes = nil
	r.validTypes = nil
}

// PostTypes returns the registered concrete post types, sorted.
func (r *Registry) PostTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.postTypes)
}

// Taxonomies returns the registered concrete taxonomies, sorted.
func (r *Registry) Taxonomies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.taxonomies)
}

// IsPostType reports whether name is a registered post type.
func (r *Registry) IsPostType(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.postTypes[name]
}

// IsTaxonomy reports whether name is a registered taxonomy.
func (r *Registry) IsTaxonomy(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.taxonomies[name]
}

// ObjectTypes returns the union of post types and taxonomies, sorted.
func (r *Registry) ObjectTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.objectTypes == nil {
		union := map[string]bool{}
		for t := range r.postTypes {
			union[t] = true
		}
		for t := range r.taxonomies {
			union[t] = true
		}
		r.objectTypes = sortedKeys(union)
	}
	return r.objectTypes
}

// AllObjectTypes returns ObjectTypes plus the four general categories and
// any registered pluggable custom types, sorted.
func (r *Registry) AllObjectTypes() []string {
	r.ObjectTypes() // populate the memo

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.allObjectTypes == nil {
		union := map[string]bool{}
		for _, t := range r.objectTypes {
			union[t] = true
		}
		for _, t := range domain.GeneralTypes() {
			union[t] = true
		}
		for t := range r.pluggable {
			union[t] = true
		}
		r.allObjectTypes = sortedKeys(union)
	}
	return r.allObjectTypes
}

// IsValidObjectType reports whether name resolves to a known object type.
// Results are memoized until the catalog changes.
func (r *Registry) IsValidObjectType(name string) bool {
	r.mu.RLock()
	if r.validTypes != nil {
		valid, seen := r.validTypes[name]
		r.mu.RUnlock()
		if seen {
			return valid
		}
	} else {
		r.mu.RUnlock()
	}

	_, valid := r.GeneralObjectType(name)

	r.mu.Lock()
	if r.validTypes == nil {
		r.validTypes = map[string]bool{}
	}
	r.validTypes[name] = valid
	r.mu.Unlock()
	return valid
}

// GeneralObjectType resolves a concrete type to its general category. A
// general category resolves to itself. The second return is false for
// unrecognized types.
func (r *Registry) GeneralObjectType(name string) (string, bool) {
	if domain.IsGeneralType(name) {
		return name, true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.postTypes[name] {
		return domain.GeneralPost, true
	}
	if r.taxonomies[name] {
		return domain.GeneralTerm, true
	}
	if general, ok := r.pluggable[name]; ok {
		return general, true
	}
	return "", false
}

// MembershipHandler returns the handler for the object type's general
// category. A missing handler is a registry configuration bug and is
// surfaced as a MissingHandlerError.
func (r *Registry) MembershipHandler(objectType string) (membership.Handler, error) {
	general, ok := r.GeneralObjectType(objectType)
	if !ok {
		return nil, domain.ErrMissingHandler(objectType)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[general]
	if !ok {
		return nil, domain.ErrMissingHandler(general)
	}
	return h, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package veneer

import (
	"reflect"
	"slices"
	"sync"
)

// Registry holds the templates of one enabled type and memoizes their
// effective entry sets. It is safe for concurrent use.
type Registry struct {
	owner reflect.Type

	mu        sync.RWMutex
	templates map[string]*Template
	resolved  map[string]*EntrySet
}

// newRegistry creates an empty registry for owner.
func newRegistry(owner reflect.Type) *Registry {
	return &Registry{
		owner:     owner,
		templates: make(map[string]*Template),
		resolved:  make(map[string]*EntrySet),
	}
}

// Owner returns the type this registry serves.
func (r *Registry) Owner() reflect.Type { return r.owner }

// register stores t, replacing any template of the same name.
// Memoized sets are dropped since any of them may extend t.
func (r *Registry) register(t *Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.name] = t
	clear(r.resolved)
}

// Template returns the template registered under name.
func (r *Registry) Template(name string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	return t, ok
}

// Templates returns the registered template names in sorted order.
func (r *Registry) Templates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve returns the effective entry set of the named template: the
// extension chain replayed from its root ancestor down to name.
func (r *Registry) Resolve(name string) (*EntrySet, error) {
	// Fast path: read-lock cache check
	r.mu.RLock()
	if set, ok := r.resolved[name]; ok {
		r.mu.RUnlock()
		return set, nil
	}
	r.mu.RUnlock()

	// Slow path: resolve and cache with write-lock
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check pattern
	if set, ok := r.resolved[name]; ok {
		return set, nil
	}

	set, err := r.resolveLocked(name)
	if err != nil {
		return nil, err
	}
	r.resolved[name] = set
	return set, nil
}

// resolveLocked walks the parent chain and replays it. r.mu must be held.
func (r *Registry) resolveLocked(name string) (*EntrySet, error) {
	var chain []*Template
	var names []string
	visited := make(map[string]bool)

	for cur := name; ; {
		names = append(names, cur)
		if visited[cur] {
			return nil, newTemplateError(ErrCyclicExtension, r.owner, cur, names)
		}
		visited[cur] = true

		t, ok := r.templates[cur]
		if !ok {
			return nil, newTemplateError(ErrUnknownTemplate, r.owner, cur, names)
		}
		chain = append(chain, t)

		if t.parent == "" {
			break
		}
		cur = t.parent
	}

	set := &EntrySet{entries: make(map[string]Entry)}
	for i := len(chain) - 1; i >= 0; i-- {
		for _, o := range chain[i].ops {
			set.apply(o)
		}
	}
	return set, nil
}

// EntrySet is the ordered, fully merged field list of a template.
type EntrySet struct {
	keys    []string
	entries map[string]Entry
}

// Len returns the number of entries.
func (s *EntrySet) Len() int { return len(s.keys) }

// Keys returns the output keys in order.
func (s *EntrySet) Keys() []string {
	return slices.Clone(s.keys)
}

// Get returns the entry occupying key.
func (s *EntrySet) Get(key string) (Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Entries returns the entries in order.
func (s *EntrySet) Entries() []Entry {
	out := make([]Entry, len(s.keys))
	for i, k := range s.keys {
		out[i] = s.entries[k]
	}
	return out
}

// apply replays one op. An add for an existing key keeps the key's position.
func (s *EntrySet) apply(o op) {
	switch o.kind {
	case opAdd:
		key := o.entry.Key
		if prev, ok := s.entries[key]; ok {
			s.entries[key] = mergeEntry(prev, o.entry)
			return
		}
		s.keys = append(s.keys, key)
		s.entries[key] = o.entry
	case opRemove:
		key := o.path[0]
		prev, ok := s.entries[key]
		if !ok {
			return
		}
		if len(o.path) > 1 {
			if pruned, keep := pruneEntry(prev, o.path[1:]); keep {
				s.entries[key] = pruned
				return
			}
		}
		delete(s.entries, key)
		s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
	}
}

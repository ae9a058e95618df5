// Package translate maps resolved host types to C++ type names and collects
// the compound type declarations the generated document must carry.
package translate

import (
	"fmt"
	"sync"
)

// Decl is one generated C++ declaration with its provenance.
type Decl struct {
	Key    string // canonical host type path, the deduplication key
	Name   string // generated C++ name, referenced by later declarations
	Body   string // full declaration text
	Origin Origin // capture site that first required this type
}

// Registry is the side table of generated compound type declarations. It
// grows monotonically during the capture pass and is read in full by the
// emitter. Translating the same host type twice yields the same entry.
type Registry struct {
	mu      sync.Mutex
	decls   []Decl
	byKey   map[string]string // canonical key -> generated name
	names   map[string]int    // generated name collision counters
	pending map[string]bool   // keys currently being translated, for cycle detection
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:   make(map[string]string),
		names:   make(map[string]int),
		pending: make(map[string]bool),
	}
}

// Decls returns the generated declarations in discovery order. Declarations
// only reference earlier entries: fields are committed before the record
// that contains them.
func (r *Registry) Decls() []Decl {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Decl, len(r.decls))
	copy(out, r.decls)
	return out
}

// lookup returns the generated name for a key already translated.
func (r *Registry) lookup(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.byKey[key]
	return name, ok
}

// begin marks a key as in-translation and reserves a document-unique C++
// name for it. It fails when the key is already in progress, which means the
// declaration chain closed back on itself.
func (r *Registry) begin(key, base string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending[key] {
		return "", fmt.Errorf("type %q is part of a declaration cycle", key)
	}
	r.pending[key] = true

	name := base
	if n := r.names[base]; n > 0 {
		name = fmt.Sprintf("%s_%d", base, n+1)
	}
	r.names[base]++
	return name, nil
}

// commit finishes a translation started with begin, recording the
// declaration text under the reserved name.
func (r *Registry) commit(key, name, body string, origin Origin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, key)
	r.byKey[key] = name
	r.decls = append(r.decls, Decl{Key: key, Name: name, Body: body, Origin: origin})
}

// abandon releases a pending key after a failed translation. The reserved
// name stays burned; a retry of the same key gets a fresh suffix.
func (r *Registry) abandon(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, key)
}

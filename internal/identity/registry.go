package identity

import (
	"errors"
	"fmt"
	"sync"
)

// ErrCollision is returned when two structurally different schemas hash
// to the same identity. Silently merging them would corrupt every call
// site sharing the name, so the caller must treat this as fatal.
var ErrCollision = errors.New("identity hash collision")

type entry struct {
	name      string
	signature string
}

// Registry maps identities to generated type names, shared across all
// compilations of one run. It is handed to the compiler explicitly, never
// reached through a package-level singleton.
type Registry struct {
	mu      sync.Mutex
	entries map[string]entry
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]entry{}}
}

// ResolveOrRegister returns the generated name for id, inserting
// candidateName if the identity is new. Concurrent callers racing on the
// same identity all observe the single winning name.
func (r *Registry) ResolveOrRegister(id Identity, candidateName string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id.Hash]; ok {
		if e.signature != id.Signature {
			return "", fmt.Errorf("%w: %q vs %q both hash to %s", ErrCollision, e.signature, id.Signature, id.Hash)
		}
		return e.name, nil
	}
	r.entries[id.Hash] = entry{name: candidateName, signature: id.Signature}
	r.order = append(r.order, id.Hash)
	return candidateName, nil
}

// Names returns all registered generated names in first-registration
// order, giving the emitter a stable declaration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.order))
	for _, h := range r.order {
		names = append(names, r.entries[h].name)
	}
	return names
}

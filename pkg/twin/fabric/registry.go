// Package fabric implements the switch runtime: the actor-model Switch
// aggregate, the process-scoped switch registry, the forwarding and OSPF
// control-plane engines wired together, ARP resolution, MVRP, and ping.
package fabric

import (
	"sync"

	"github.com/newtron-network/swtwin/pkg/twin/util"
)

// Registry is the process-scoped switch registry: name -> switch handle.
// Per spec.md §9, switches never hold owning pointers to their neighbors —
// adjacency stores only names, resolved here on demand. Safe for
// concurrent readers; writes happen only on Add/Remove.
type Registry struct {
	mu       sync.RWMutex
	switches map[string]*Switch
}

// NewRegistry returns an empty switch registry.
func NewRegistry() *Registry {
	return &Registry{switches: map[string]*Switch{}}
}

// Add creates and registers a new switch, starting its actor goroutine.
// Returns a ConfigError if the name is taken.
func (r *Registry) Add(name string) (*Switch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.switches[name]; ok {
		return nil, util.NewConfigError("add-switch", name, "switch already exists")
	}
	s := newSwitch(name, r)
	r.switches[name] = s
	go s.run()
	return s, nil
}

// Lookup resolves a switch by name. This is the only way one switch ever
// reaches another — never a direct struct reference.
func (r *Registry) Lookup(name string) (*Switch, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.switches[name]
	return s, ok
}

// Names returns all registered switch names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.switches))
	for n := range r.switches {
		names = append(names, n)
	}
	return names
}

// Remove shuts down and unregisters a switch.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.switches[name]
	if !ok {
		return false
	}
	close(s.closeCh)
	delete(r.switches, name)
	return true
}

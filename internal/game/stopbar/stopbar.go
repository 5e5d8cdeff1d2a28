package stopbar

import (
	"fmt"
	"slices"
	"sync"

	"taxi-simulator/internal/game/topology"
	"taxi-simulator/pkg/types"
)

// Checker is the read side of the registry consulted by moving aircraft.
type Checker interface {
	IsActive(id types.NodeID) bool
}

// ReleaseFunc is called after the bar at a node goes from active to
// inactive.
type ReleaseFunc func(id types.NodeID)

// Registry holds per-node stop-bar state. All bars start inactive.
type Registry struct {
	mu        sync.RWMutex
	graph     *topology.Graph
	active    map[types.NodeID]bool
	listeners []ReleaseFunc
}

func NewRegistry(g *topology.Graph) *Registry {
	return &Registry{
		graph:  g,
		active: make(map[types.NodeID]bool),
	}
}

// OnRelease registers fn to be called whenever a bar is switched off.
// Listeners run after the registry lock is released.
func (r *Registry) OnRelease(fn ReleaseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Registry) IsActive(id types.NodeID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active[id]
}

// Toggle flips the bar at id and returns its new state.
func (r *Registry) Toggle(id types.NodeID) (bool, error) {
	if !r.graph.Has(id) {
		return false, fmt.Errorf("%w: %s", topology.ErrUnknownNode, id)
	}

	r.mu.Lock()
	on := !r.active[id]
	if on {
		r.active[id] = true
	} else {
		delete(r.active, id)
	}
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	if !on {
		for _, fn := range listeners {
			fn(id)
		}
	}
	return on, nil
}

// Clear switches the bar at id off. Clearing an inactive bar does nothing
// and reports changed == false.
func (r *Registry) Clear(id types.NodeID) (changed bool, err error) {
	if !r.graph.Has(id) {
		return false, fmt.Errorf("%w: %s", topology.ErrUnknownNode, id)
	}

	r.mu.Lock()
	changed = r.active[id]
	delete(r.active, id)
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(id)
		}
	}
	return changed, nil
}

// Active returns the nodes with a lit bar, sorted by id.
func (r *Registry) Active() []types.NodeID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]types.NodeID, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

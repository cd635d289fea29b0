package firearm

import (
	"fmt"
	"sort"
)

// Registry holds loaded firearm definitions indexed by ID.
type Registry struct {
	defs map[string]*FirearmDef
}

// NewRegistry returns an empty Registry.
//
// Postcondition: the internal map is initialised.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*FirearmDef)}
}

// Register adds d to the registry.
//
// Precondition:  d must not be nil.
// Postcondition: Def(d.ID) returns (d, true); returns error if d.ID already registered.
func (r *Registry) Register(d *FirearmDef) error {
	if _, exists := r.defs[d.ID]; exists {
		return fmt.Errorf("firearm: Registry.Register: firearm ID %q already registered", d.ID)
	}
	r.defs[d.ID] = d
	return nil
}

// Def returns the FirearmDef for id and whether it was found.
func (r *Registry) Def(id string) (*FirearmDef, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns every registered definition sorted by ID.
func (r *Registry) All() []*FirearmDef {
	out := make([]*FirearmDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int { return len(r.defs) }

package hierarchy

import (
	"errors"
	"fmt"
	"sync"

	"mercator-hq/minerva/pkg/governance"
)

// ErrUnitNotFound indicates a lookup for an unknown unit id.
var ErrUnitNotFound = errors.New("unit not found")

// Unit is a node in the organizational tree.
type Unit struct {
	ID       string
	Name     string
	Layer    governance.KnowledgeLayer
	ParentID string
}

// Directory resolves organizational units. The governance core consumes it
// read-only; ownership of the underlying data lives with the caller.
type Directory interface {
	// Unit returns the unit with the given id.
	Unit(id string) (*Unit, error)

	// Ancestors returns the chain of ancestor units from the unit's parent
	// up to the root, nearest first.
	Ancestors(id string) ([]*Unit, error)

	// Descendants returns all units below the given unit, in no particular
	// order.
	Descendants(id string) ([]*Unit, error)

	// ListUnits returns all known units.
	ListUnits() []*Unit
}

// MemoryDirectory is an in-memory Directory implementation.
type MemoryDirectory struct {
	mu    sync.RWMutex
	units map[string]*Unit
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{units: make(map[string]*Unit)}
}

// AddUnit registers a unit. The parent, if set, must already exist and must
// occupy a broader layer than the unit itself.
func (d *MemoryDirectory) AddUnit(unit *Unit) error {
	if unit == nil || unit.ID == "" {
		return fmt.Errorf("unit id cannot be empty")
	}
	if !unit.Layer.Valid() {
		return fmt.Errorf("unit %s: invalid layer", unit.ID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if unit.ParentID != "" {
		parent, ok := d.units[unit.ParentID]
		if !ok {
			return fmt.Errorf("unit %s: parent %s: %w", unit.ID, unit.ParentID, ErrUnitNotFound)
		}
		if !(parent.Layer < unit.Layer) {
			return fmt.Errorf("unit %s at %s cannot have parent %s at %s",
				unit.ID, unit.Layer, parent.ID, parent.Layer)
		}
	}

	u := *unit
	d.units[unit.ID] = &u
	return nil
}

// Unit returns the unit with the given id.
func (d *MemoryDirectory) Unit(id string) (*Unit, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	unit, ok := d.units[id]
	if !ok {
		return nil, fmt.Errorf("unit %s: %w", id, ErrUnitNotFound)
	}
	u := *unit
	return &u, nil
}

// Ancestors returns the ancestor chain of a unit, nearest first.
func (d *MemoryDirectory) Ancestors(id string) ([]*Unit, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	unit, ok := d.units[id]
	if !ok {
		return nil, fmt.Errorf("unit %s: %w", id, ErrUnitNotFound)
	}

	var chain []*Unit
	seen := map[string]bool{id: true}
	for unit.ParentID != "" {
		parent, ok := d.units[unit.ParentID]
		if !ok {
			return nil, fmt.Errorf("unit %s: parent %s: %w", unit.ID, unit.ParentID, ErrUnitNotFound)
		}
		if seen[parent.ID] {
			return nil, fmt.Errorf("unit %s: cycle in ancestor chain at %s", id, parent.ID)
		}
		seen[parent.ID] = true
		p := *parent
		chain = append(chain, &p)
		unit = parent
	}
	return chain, nil
}

// Descendants returns all units below the given unit.
func (d *MemoryDirectory) Descendants(id string) ([]*Unit, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := d.units[id]; !ok {
		return nil, fmt.Errorf("unit %s: %w", id, ErrUnitNotFound)
	}

	children := make(map[string][]*Unit)
	for _, u := range d.units {
		if u.ParentID != "" {
			children[u.ParentID] = append(children[u.ParentID], u)
		}
	}

	var result []*Unit
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			c := *child
			result = append(result, &c)
			queue = append(queue, child.ID)
		}
	}
	return result, nil
}

// ListUnits returns all known units.
func (d *MemoryDirectory) ListUnits() []*Unit {
	d.mu.RLock()
	defer d.mu.RUnlock()

	units := make([]*Unit, 0, len(d.units))
	for _, u := range d.units {
		c := *u
		units = append(units, &c)
	}
	return units
}

// LayerOf returns the knowledge layer of the given unit.
func LayerOf(dir Directory, unitID string) (governance.KnowledgeLayer, error) {
	unit, err := dir.Unit(unitID)
	if err != nil {
		return 0, err
	}
	return unit.Layer, nil
}

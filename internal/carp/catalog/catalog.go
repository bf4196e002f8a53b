// Package catalog builds the dense, ID-indexed catalog of required
// elements (node, edge, and arc services) that every later solver stage
// addresses by integer ID.
package catalog

import "mcarptif/internal/carp/model"

// Catalog is a dense, 1-based vector of services: Catalog.ByID(id) is
// services[id-1]. IDs are assigned once, in construction order, and are
// stable for the lifetime of one optimisation run.
type Catalog struct {
	services []model.Service
}

// Builder assembles a Catalog, assigning IDs in the order the Add* calls
// are made. It does not reorder by kind: callers add required nodes, then
// required edges, then required arcs to get that ID order.
type Builder struct {
	services []model.Service
	nextID   int64
}

// NewBuilder returns an empty catalog builder; the first service added
// receives ID 1.
func NewBuilder() *Builder {
	return &Builder{nextID: 1}
}

// AddNode appends a required-node service. From and To are both set to
// the node itself, matching the reference semantics for node services.
func (b *Builder) AddNode(node, demand, serviceCost int64) model.Service {
	return b.add(model.NodeService, node, node, demand, serviceCost)
}

// AddEdge appends a required-edge service. From/To record the direction
// a route will traverse it in; either orientation is valid since the
// underlying edge is bidirectional.
func (b *Builder) AddEdge(from, to, demand, serviceCost int64) model.Service {
	return b.add(model.EdgeService, from, to, demand, serviceCost)
}

// AddArc appends a required-arc service. From/To are fixed by the arc's
// direction and must never be swapped by any later operator.
func (b *Builder) AddArc(from, to, demand, serviceCost int64) model.Service {
	return b.add(model.ArcService, from, to, demand, serviceCost)
}

func (b *Builder) add(kind model.ServiceKind, from, to, demand, serviceCost int64) model.Service {
	s := model.Service{
		ID:          b.nextID,
		Kind:        kind,
		From:        from,
		To:          to,
		Demand:      demand,
		ServiceCost: serviceCost,
	}
	b.services = append(b.services, s)
	b.nextID++
	return s
}

// Build freezes the builder into a read-only Catalog.
func (b *Builder) Build() *Catalog {
	out := make([]model.Service, len(b.services))
	copy(out, b.services)
	return &Catalog{services: out}
}

// ByID returns the service with the given 1-based ID. The second return
// value is false if id is out of range.
func (c *Catalog) ByID(id int64) (model.Service, bool) {
	if id < 1 || int(id) > len(c.services) {
		return model.Service{}, false
	}
	return c.services[id-1], true
}

// Len returns the number of services in the catalog.
func (c *Catalog) Len() int {
	return len(c.services)
}

// All returns every service in ID order. The returned slice must not be
// mutated by callers; it aliases the catalog's internal storage.
func (c *Catalog) All() []model.Service {
	return c.services
}

// IDs returns every service ID in ascending order, 1..Len().
func (c *Catalog) IDs() []int64 {
	ids := make([]int64, len(c.services))
	for i, s := range c.services {
		ids[i] = s.ID
	}
	return ids
}

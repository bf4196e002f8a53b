// Package evaluate provides the two pure functions that define route cost
// and route demand. Every operator and the constructive builder call
// these rather than maintaining delta-consistent cached totals, so cost
// and demand can never drift from what a fresh recomputation would give.
package evaluate

import (
	"mcarptif/internal/carp/apsp"
	"mcarptif/internal/carp/model"
)

// RouteCost computes the total cost of visiting the given services, in
// order, starting and ending at depot: the depot-to-first leg, each
// inter-service leg plus that service's cost, and the last-to-depot leg.
// An empty sequence costs 0. Any unreachable leg saturates the total to
// model.Unreachable.
func RouteCost(depot int64, services []model.Service, m *apsp.Matrix) int64 {
	if len(services) == 0 {
		return 0
	}

	total := m.At(depot, services[0].From)
	total = model.SaturatingAdd(total, services[0].ServiceCost)

	for i := 1; i < len(services); i++ {
		leg := m.At(services[i-1].To, services[i].From)
		total = model.SaturatingAdd(total, leg)
		total = model.SaturatingAdd(total, services[i].ServiceCost)
	}

	last := services[len(services)-1]
	total = model.SaturatingAdd(total, m.At(last.To, depot))

	return total
}

// RouteDemand sums the demand of every service and reports whether the
// total is within capacity.
func RouteDemand(services []model.Service, capacity int64) (demand int64, feasible bool) {
	for _, s := range services {
		demand += s.Demand
	}
	return demand, demand <= capacity
}

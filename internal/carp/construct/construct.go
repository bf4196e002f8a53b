// Package construct implements the greedy "cheapest-insertion-with-return"
// constructive heuristic that builds an initial feasible solution: one
// route at a time, seeded by the cheapest standalone round trip and
// extended by a look-ahead cost criterion until no uncovered service fits.
package construct

import (
	"fmt"

	"mcarptif/internal/carp/apsp"
	"mcarptif/internal/carp/catalog"
	"mcarptif/internal/carp/evaluate"
	"mcarptif/internal/carp/model"
	"mcarptif/pkg/apperror"
)

// Result is the outcome of a construction run: the solution built from
// whatever services could be placed, plus the set of services that could
// not be reached or that individually exceed capacity, as both a bare ID
// list and a collection of warnings explaining why each was dropped.
type Result struct {
	Solution  *model.Solution
	Uncovered []int64
	Warnings  *apperror.ValidationErrors
}

// Build constructs routes until every reachable, capacity-feasible
// service has been placed. depot is the route start/end node and
// capacity is the per-vehicle demand limit.
func Build(depot, capacity int64, cat *catalog.Catalog, m *apsp.Matrix) Result {
	uncovered := make(map[int64]model.Service, cat.Len())
	for _, s := range cat.All() {
		uncovered[s.ID] = s
	}

	var routes []*model.Route
	var nextRouteID int64 = 1

	for len(uncovered) > 0 {
		seed, ok := selectSeed(depot, capacity, uncovered, m)
		if !ok {
			break // everything left is unreachable or individually infeasible
		}
		delete(uncovered, seed.ID)

		services := []model.Service{seed}
		currentLoc := seed.To
		currentDemand := seed.Demand

		for {
			next, ok := selectExtension(currentLoc, currentDemand, depot, capacity, uncovered, m)
			if !ok {
				break
			}
			delete(uncovered, next.ID)
			services = append(services, next)
			currentLoc = next.To
			currentDemand += next.Demand
		}

		routes = append(routes, buildRoute(nextRouteID, depot, services, m))
		nextRouteID++
	}

	uncoveredIDs := make([]int64, 0, len(uncovered))
	for id := range uncovered {
		uncoveredIDs = append(uncoveredIDs, id)
	}
	sortInt64s(uncoveredIDs)

	warnings := apperror.NewValidationErrors()
	for _, id := range uncoveredIDs {
		s := uncovered[id]
		warnings.Add(uncoveredReason(depot, capacity, s, m))
	}

	return Result{
		Solution:  &model.Solution{Routes: routes},
		Uncovered: uncoveredIDs,
		Warnings:  warnings,
	}
}

// uncoveredReason classifies why a service could never be placed: its own
// demand exceeds the vehicle capacity, or the depot cannot reach it (or
// return from it) at all.
func uncoveredReason(depot, capacity int64, s model.Service, m *apsp.Matrix) *apperror.Error {
	if s.Demand > capacity {
		return apperror.NewWarning(apperror.CodeInfeasibleService,
			fmt.Sprintf("service %d demand %d exceeds vehicle capacity %d", s.ID, s.Demand, capacity)).
			WithField("service_id")
	}
	return apperror.NewWarning(apperror.CodeUnreachable,
		fmt.Sprintf("service %d is unreachable from the depot", s.ID)).
		WithField("service_id")
}

// selectSeed picks the cheapest standalone round trip among uncovered,
// capacity-feasible, reachable services, tie-broken by lowest ID.
func selectSeed(depot, capacity int64, uncovered map[int64]model.Service, m *apsp.Matrix) (model.Service, bool) {
	var best model.Service
	var bestCost int64 = model.Unreachable
	found := false

	for _, id := range sortedKeys(uncovered) {
		s := uncovered[id]
		if s.Demand > capacity {
			continue
		}
		toStart := m.At(depot, s.From)
		toDepot := m.At(s.To, depot)
		if toStart >= model.Unreachable || toDepot >= model.Unreachable {
			continue
		}
		cost := model.SaturatingAdd(model.SaturatingAdd(toStart, s.ServiceCost), toDepot)
		if !found || cost < bestCost || (cost == bestCost && s.ID < best.ID) {
			best, bestCost, found = s, cost, true
		}
	}

	return best, found
}

// selectExtension picks the next service to append to a route in
// progress, minimising the look-ahead cost D[currentLoc, s.From] +
// s.service_cost + D[s.to, depot], tie-broken by lowest ID.
func selectExtension(currentLoc, currentDemand, depot, capacity int64, uncovered map[int64]model.Service, m *apsp.Matrix) (model.Service, bool) {
	var best model.Service
	var bestCost int64 = model.Unreachable
	found := false

	for _, id := range sortedKeys(uncovered) {
		s := uncovered[id]
		if currentDemand+s.Demand > capacity {
			continue
		}
		toStart := m.At(currentLoc, s.From)
		toDepot := m.At(s.To, depot)
		if toStart >= model.Unreachable || toDepot >= model.Unreachable {
			continue
		}
		cost := model.SaturatingAdd(model.SaturatingAdd(toStart, s.ServiceCost), toDepot)
		if !found || cost < bestCost || (cost == bestCost && s.ID < best.ID) {
			best, bestCost, found = s, cost, true
		}
	}

	return best, found
}

func buildRoute(id, depot int64, services []model.Service, m *apsp.Matrix) *model.Route {
	visits := make([]model.Visit, 0, len(services)+2)
	visits = append(visits, model.Visit{IsDepot: true, From: depot, To: depot})
	for _, s := range services {
		visits = append(visits, model.Visit{ServiceID: s.ID, From: s.From, To: s.To})
	}
	visits = append(visits, model.Visit{IsDepot: true, From: depot, To: depot})

	var demand int64
	for _, s := range services {
		demand += s.Demand
	}

	return &model.Route{
		ID:     id,
		Visits: visits,
		Cost:   evaluate.RouteCost(depot, services, m),
		Demand: demand,
	}
}

func sortedKeys(m map[int64]model.Service) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortInt64s(keys)
	return keys
}

func sortInt64s(s []int64) {
	for i := 1; i < len(s); i++ {
		v := s[i]
		j := i - 1
		for j >= 0 && s[j] > v {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}

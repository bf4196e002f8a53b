// Package localsearch implements the three first-improvement neighborhood
// operators (2-opt intra, Relocate intra, Relocate inter) and the VND
// controller that cycles through them until no operator can improve the
// solution or a configured iteration budget is exhausted.
package localsearch

import (
	"runtime"
	"sync"

	"mcarptif/internal/carp/apsp"
	"mcarptif/internal/carp/evaluate"
	"mcarptif/internal/carp/model"
)

// DefaultMaxIterations is the VND outer-loop iteration cap used when the
// caller does not supply one.
const DefaultMaxIterations = 5

// Outcome reports how the VND loop terminated.
type Outcome int

const (
	// Stable means a full cycle of all three operators found no
	// improving move anywhere in the solution.
	Stable Outcome = iota
	// BudgetedOut means the iteration cap was reached before the
	// solution stabilized.
	BudgetedOut
)

// TwoOptIntra scans every (i, j) segment reversal within a single route
// and accepts the first one that strictly improves cost while staying
// capacity-feasible and legal (no required arc has its direction flipped).
// It returns the possibly-updated service sequence and whether a move was
// accepted.
func TwoOptIntra(depot, capacity int64, services []model.Service, m *apsp.Matrix) ([]model.Service, bool) {
	n := len(services)
	if n < 2 {
		return services, false
	}

	baseCost := evaluate.RouteCost(depot, services, m)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !segmentReversalLegal(services[i : j+1]) {
				continue
			}
			candidate := reversedCopy(services, i, j)
			if _, feasible := evaluate.RouteDemand(candidate, capacity); !feasible {
				continue
			}
			if cost := evaluate.RouteCost(depot, candidate, m); cost < baseCost {
				return candidate, true
			}
		}
	}

	return services, false
}

func segmentReversalLegal(segment []model.Service) bool {
	for _, s := range segment {
		if !s.ReversalLegal() {
			return false
		}
	}
	return true
}

func reversedCopy(services []model.Service, i, j int) []model.Service {
	out := make([]model.Service, len(services))
	copy(out, services)
	for l, r := i, j; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// RelocateIntra scans every (remove position i, insert position j) pair
// within a single route and accepts the first strictly-improving move.
func RelocateIntra(depot, capacity int64, services []model.Service, m *apsp.Matrix) ([]model.Service, bool) {
	n := len(services)
	if n < 2 {
		return services, false
	}

	baseCost := evaluate.RouteCost(depot, services, m)

	for i := 0; i < n; i++ {
		// insertAt ranges over every position in the i-removed route,
		// including the trailing slot (insertAt == n-1, the true end of
		// the route); insertAt == i reproduces the original order and is
		// skipped.
		for insertAt := 0; insertAt < n; insertAt++ {
			if insertAt == i {
				continue
			}
			candidate := relocatedCopy(services, i, insertAt)
			if _, feasible := evaluate.RouteDemand(candidate, capacity); !feasible {
				continue
			}
			if cost := evaluate.RouteCost(depot, candidate, m); cost < baseCost {
				return candidate, true
			}
		}
	}

	return services, false
}

// relocatedCopy removes the service at index i and reinserts it at
// position insertAt of the remaining (i-removed) route.
func relocatedCopy(services []model.Service, i, insertAt int) []model.Service {
	moved := services[i]
	rest := make([]model.Service, 0, len(services)-1)
	rest = append(rest, services[:i]...)
	rest = append(rest, services[i+1:]...)

	out := make([]model.Service, 0, len(services))
	out = append(out, rest[:insertAt]...)
	out = append(out, moved)
	out = append(out, rest[insertAt:]...)
	return out
}

// RelocateInter scans every ordered pair of distinct routes and every
// (service in A, insertion position in B) combination, accepting the
// first move whose combined cost strictly improves and whose destination
// route stays capacity-feasible. routes holds each route's full service
// data (Demand/ServiceCost/Kind already resolved by the caller). On
// acceptance the two affected slices are replaced in routes and the
// function returns true; empty routes are left in place for the caller
// to prune.
func RelocateInter(depot, capacity int64, routes [][]model.Service, m *apsp.Matrix) ([][]model.Service, bool) {
	for ai := range routes {
		for bi := range routes {
			if ai == bi {
				continue
			}
			a, b := routes[ai], routes[bi]
			oldCost := evaluate.RouteCost(depot, a, m) + evaluate.RouteCost(depot, b, m)

			for i := range a {
				candidateA := withoutIndex(a, i)
				moved := a[i]

				for j := 0; j <= len(b); j++ {
					candidateB := insertAt(b, moved, j)
					if _, feasible := evaluate.RouteDemand(candidateB, capacity); !feasible {
						continue
					}

					newCost := evaluate.RouteCost(depot, candidateA, m) + evaluate.RouteCost(depot, candidateB, m)
					if newCost < oldCost {
						routes[ai] = candidateA
						routes[bi] = candidateB
						return routes, true
					}
				}
			}
		}
	}

	return routes, false
}

func withoutIndex(services []model.Service, i int) []model.Service {
	out := make([]model.Service, 0, len(services)-1)
	out = append(out, services[:i]...)
	out = append(out, services[i+1:]...)
	return out
}

func insertAt(services []model.Service, s model.Service, pos int) []model.Service {
	out := make([]model.Service, 0, len(services)+1)
	out = append(out, services[:pos]...)
	out = append(out, s)
	out = append(out, services[pos:]...)
	return out
}

// VND runs the fixed-order cycle [2-opt intra, Relocate intra, Relocate
// inter] repeatedly, up to maxIterations outer passes, until a full cycle
// accepts no move anywhere. Intra-route operators run in parallel across
// routes, grounded on the teacher's channel-based worker-pool shape;
// Relocate-inter runs single-threaded since it mutates route pairs. lookup
// resolves a service ID to its catalog record (Kind/Demand/ServiceCost);
// From/To on the returned value are overwritten from the route's own
// visit data before use.
func VND(depot, capacity int64, solution *model.Solution, m *apsp.Matrix, lookup func(id int64) model.Service, maxIterations int, workers int) Outcome {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	for iter := 0; iter < maxIterations; iter++ {
		improvedThisCycle := false

		if runIntraRoutePass(depot, capacity, solution, m, lookup, workers, TwoOptIntra) {
			improvedThisCycle = true
		}
		if runIntraRoutePass(depot, capacity, solution, m, lookup, workers, RelocateIntra) {
			improvedThisCycle = true
		}
		if runRelocateInterPass(depot, capacity, solution, m, lookup) {
			improvedThisCycle = true
		}

		if !improvedThisCycle {
			return Stable
		}
	}

	return BudgetedOut
}

type intraOp func(depot, capacity int64, services []model.Service, m *apsp.Matrix) ([]model.Service, bool)

// runIntraRoutePass applies op to every route in parallel, repeating each
// route's scan until that route stops improving, then writes results
// back deterministically by route index.
func runIntraRoutePass(depot, capacity int64, solution *model.Solution, m *apsp.Matrix, lookup func(int64) model.Service, workers int, op intraOp) bool {
	n := len(solution.Routes)
	if n == 0 {
		return false
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	improvedFlags := make([]bool, n)

	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				route := solution.Routes[idx]
				services := resolveServices(route, lookup)

				anyImproved := false
				for {
					updated, improved := op(depot, capacity, services, m)
					if !improved {
						break
					}
					services = updated
					anyImproved = true
				}

				if anyImproved {
					applyRoute(route, services, depot, m)
					improvedFlags[idx] = true
				}
			}
		}()
	}
	wg.Wait()

	for _, f := range improvedFlags {
		if f {
			return true
		}
	}
	return false
}

// runRelocateInterPass repeats RelocateInter across the whole solution
// until a full scan finds no move, then writes routes back and drops any
// that emptied out.
func runRelocateInterPass(depot, capacity int64, solution *model.Solution, m *apsp.Matrix, lookup func(int64) model.Service) bool {
	anyImproved := false

	for {
		serviceSets := make([][]model.Service, len(solution.Routes))
		for i, r := range solution.Routes {
			serviceSets[i] = resolveServices(r, lookup)
		}

		updated, improved := RelocateInter(depot, capacity, serviceSets, m)
		if !improved {
			break
		}
		anyImproved = true

		kept := solution.Routes[:0]
		for i, services := range updated {
			if len(services) == 0 {
				continue
			}
			applyRoute(solution.Routes[i], services, depot, m)
			kept = append(kept, solution.Routes[i])
		}
		solution.Routes = kept
	}

	return anyImproved
}

func resolveServices(r *model.Route, lookup func(int64) model.Service) []model.Service {
	visits := r.Services()
	out := make([]model.Service, len(visits))
	for i, v := range visits {
		s := lookup(v.ServiceID)
		s.From, s.To = v.From, v.To
		out[i] = s
	}
	return out
}

func applyRoute(r *model.Route, services []model.Service, depot int64, m *apsp.Matrix) {
	visits := make([]model.Visit, 0, len(services)+2)
	visits = append(visits, model.Visit{IsDepot: true, From: depot, To: depot})
	var demand int64
	for _, s := range services {
		visits = append(visits, model.Visit{ServiceID: s.ID, From: s.From, To: s.To})
		demand += s.Demand
	}
	visits = append(visits, model.Visit{IsDepot: true, From: depot, To: depot})

	r.Visits = visits
	r.Cost = evaluate.RouteCost(depot, services, m)
	r.Demand = demand
}

// Package apsp computes the all-pairs shortest-path distance matrix over a
// mixed graph using per-source Dijkstra, partitioned across a worker pool.
package apsp

import (
	"container/heap"
	"runtime"
	"sync"

	"mcarptif/internal/carp/model"
)

// Matrix is the immutable, square distance matrix returned by Compute.
// Matrix.At(u, v) takes node IDs and maps them to row/column positions
// through the matrix's own id<->index mapping.
type Matrix struct {
	nodes []int64
	index map[int64]int
	rows  [][]int64 // rows[i][j] = distance from nodes[i] to nodes[j]
}

// At returns the shortest-path distance from u to v, or model.Unreachable
// if no walk connects them (or either node is unknown to the matrix).
func (m *Matrix) At(u, v int64) int64 {
	i, ok := m.index[u]
	if !ok {
		return model.Unreachable
	}
	j, ok := m.index[v]
	if !ok {
		return model.Unreachable
	}
	return m.rows[i][j]
}

// Nodes returns the node IDs the matrix covers, in the order used to
// build it (ascending, per Graph.Nodes).
func (m *Matrix) Nodes() []int64 {
	return m.nodes
}

// Compute builds the full distance matrix for g using workers concurrent
// per-source Dijkstra runs. workers <= 0 defaults to runtime.NumCPU().
func Compute(g *model.Graph, workers int) *Matrix {
	nodes := g.Nodes()
	n := len(nodes)
	index := make(map[int64]int, n)
	for i, id := range nodes {
		index[id] = i
	}

	rows := make([][]int64, n)
	for i := range rows {
		rows[i] = make([]int64, n)
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	type job struct {
		row    int
		source int64
	}
	jobs := make(chan job, n)
	for i, id := range nodes {
		jobs <- job{row: i, source: id}
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				dijkstra(g, j.source, nodes, index, rows[j.row])
			}
		}()
	}
	wg.Wait()

	return &Matrix{nodes: nodes, index: index, rows: rows}
}

// pqItem is an entry in the Dijkstra priority queue.
type pqItem struct {
	node     int64
	distance int64
	index    int
}

// priorityQueue is a min-heap on distance, tie-broken by node ID so that
// repeated runs on the same graph always pop entries in the same order.
type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].distance != pq[j].distance {
		return pq[i].distance < pq[j].distance
	}
	return pq[i].node < pq[j].node
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// dijkstra runs single-source Dijkstra from source over g and writes the
// resulting distances into row, indexed via nodeIndex. Edge weights in a
// CARP instance are always non-negative, so plain Dijkstra is correct
// without a Bellman-Ford fallback.
func dijkstra(g *model.Graph, source int64, nodes []int64, nodeIndex map[int64]int, row []int64) {
	for i := range row {
		row[i] = model.Unreachable
	}

	dist := make(map[int64]int64, len(nodes))
	for _, id := range nodes {
		dist[id] = model.Unreachable
	}
	dist[source] = 0

	pq := make(priorityQueue, 0, len(nodes))
	heap.Init(&pq)
	heap.Push(&pq, &pqItem{node: source, distance: 0})

	for pq.Len() > 0 {
		current := heap.Pop(&pq).(*pqItem)
		u := current.node

		if current.distance > dist[u] {
			continue // stale entry, a better distance was already settled
		}

		for _, v := range g.Neighbors(u) {
			cost, ok := g.DirectCost(u, v)
			if !ok {
				continue
			}
			newDist := dist[u] + cost
			if newDist < dist[v] {
				dist[v] = newDist
				heap.Push(&pq, &pqItem{node: v, distance: newDist})
			}
		}
	}

	for id, d := range dist {
		row[nodeIndex[id]] = d
	}
}

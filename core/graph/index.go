package graph

import "slices"

// dagIndex mirrors the edge list as arcs between node names. Parallel edges
// between the same pair of nodes are counted so removing one keeps the arc.
type dagIndex struct {
	order      []string
	successors map[string]map[string]int
	inDegree   map[string]int
}

func newDAGIndex() *dagIndex {
	return &dagIndex{
		successors: make(map[string]map[string]int),
		inDegree:   make(map[string]int),
	}
}

func (index *dagIndex) addNode(name string) {
	if _, exists := index.successors[name]; exists {
		return
	}
	index.order = append(index.order, name)
	index.successors[name] = make(map[string]int)
	index.inDegree[name] = 0
}

func (index *dagIndex) removeNode(name string) {
	if _, exists := index.successors[name]; !exists {
		return
	}
	for target, count := range index.successors[name] {
		index.inDegree[target] -= count
	}
	delete(index.successors, name)
	delete(index.inDegree, name)
	index.order = slices.DeleteFunc(index.order, func(candidate string) bool { return candidate == name })
}

func (index *dagIndex) addArc(from, to string) {
	index.successors[from][to]++
	index.inDegree[to]++
}

func (index *dagIndex) removeArc(from, to string) {
	successors, exists := index.successors[from]
	if !exists || successors[to] == 0 {
		return
	}
	successors[to]--
	if successors[to] == 0 {
		delete(successors, to)
	}
	index.inDegree[to]--
}

// reachable reports whether to can be reached from from following arcs.
func (index *dagIndex) reachable(from, to string) bool {
	if from == to {
		return true
	}

	visited := map[string]bool{from: true}
	stack := []string{from}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for next := range index.successors[current] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}

	return false
}

// closesCycle reports whether the arc from -> to, already inserted, lies on a
// cycle. Only paths leaving to need checking.
func (index *dagIndex) closesCycle(from, to string) bool {
	return index.reachable(to, from)
}

// entries returns the nodes with in-degree zero in insertion order.
func (index *dagIndex) entries() []string {
	entries := make([]string, 0)
	for _, name := range index.order {
		if index.inDegree[name] == 0 {
			entries = append(entries, name)
		}
	}
	return entries
}

// levels runs Kahn's algorithm and groups nodes by generation. Within a
// generation nodes keep insertion order. Every call recomputes from scratch.
func (index *dagIndex) levels() [][]string {
	position := make(map[string]int, len(index.order))
	inDegree := make(map[string]int, len(index.order))
	for pos, name := range index.order {
		position[name] = pos
		inDegree[name] = index.inDegree[name]
	}

	byPosition := func(a, b string) int { return position[a] - position[b] }

	current := index.entries()
	levels := make([][]string, 0)

	for len(current) > 0 {
		levels = append(levels, current)

		next := make([]string, 0)
		for _, name := range current {
			for successor, count := range index.successors[name] {
				inDegree[successor] -= count
				if inDegree[successor] == 0 {
					next = append(next, successor)
				}
			}
		}

		slices.SortFunc(next, byPosition)
		current = next
	}

	return levels
}

// topologicalOrder flattens levels.
func (index *dagIndex) topologicalOrder() []string {
	order := make([]string, 0, len(index.order))
	for _, level := range index.levels() {
		order = append(order, level...)
	}
	return order
}

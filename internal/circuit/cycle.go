package circuit

import (
	"fmt"
	"slices"
	"strings"
)

// dependencyGraph maps a node index to the nodes that read it, with edges
// into BASE/INPUT leaves removed.
type dependencyGraph [][]int

func buildDependencyGraph(nodes []Node) dependencyGraph {
	graph := make(dependencyGraph, len(nodes))
	for i := range nodes {
		for _, out := range nodes[i].Outputs {
			if isWireTarget(&nodes[out]) {
				continue
			}
			graph[i] = append(graph[i], out)
		}
	}
	return graph
}

// isWireTarget reports whether edges into n are transition wires.
func isWireTarget(n *Node) bool {
	return n.Prop == PropBase || n.Prop == PropInput
}

// topoOrder returns the nodes of graph in dependency order using Kahn's
// algorithm, visiting ready nodes by ascending index. ok is false when the
// graph has a cycle.
func topoOrder(graph dependencyGraph) (order []int, ok bool) {
	indegree := make([]int, len(graph))
	for _, outs := range graph {
		for _, w := range outs {
			indegree[w]++
		}
	}

	queue := make([]int, 0, len(graph))
	for v := range graph {
		if indegree[v] == 0 {
			queue = append(queue, v)
		}
	}

	order = make([]int, 0, len(graph))
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)
		for _, w := range graph[v] {
			indegree[w]--
			if indegree[w] == 0 {
				queue = append(queue, w)
			}
		}
	}
	return order, len(order) == len(graph)
}

func hasSelfLoop(v int, graph dependencyGraph) bool {
	return slices.Contains(graph[v], v)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are not cycles; callers filter them.
func tarjanSCC(graph dependencyGraph) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make([]int, len(graph))
		lowlink = make([]int, len(graph))
		onStack = make([]bool, len(graph))
		sccs    [][]int
	)
	for i := range indices {
		indices[i] = -1
	}

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if indices[w] < 0 {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	for v := range graph {
		if indices[v] < 0 {
			strongConnect(v)
		}
	}
	return sccs
}

// cycleViolations reports one violation per cycle, each with a node path.
func cycleViolations(nodes []Node, graph dependencyGraph) []Violation {
	var out []Violation
	for _, scc := range tarjanSCC(graph) {
		if len(scc) == 1 && !hasSelfLoop(scc[0], graph) {
			continue
		}
		path := reconstructCyclePath(scc, graph)
		names := make([]string, len(path))
		for i, v := range path {
			names[i] = nodes[v].Name
		}
		out = append(out, Violation{
			Code:    CodeCycle,
			Node:    path[0],
			Message: fmt.Sprintf("cycle outside transition wires: %s", strings.Join(names, " -> ")),
		})
	}
	slices.SortFunc(out, func(a, b Violation) int { return a.Node - b.Node })
	return out
}

// reconstructCyclePath follows edges inside scc from its smallest member
// until the walk returns to the start.
func reconstructCyclePath(scc []int, graph dependencyGraph) []int {
	if len(scc) == 0 {
		return nil
	}
	start := scc[0]
	if len(scc) == 1 {
		return []int{start, start}
	}

	member := make(map[int]bool, len(scc))
	for _, v := range scc {
		member[v] = true
	}

	current := start
	path := []int{current}
	visited := make(map[int]bool)
	for {
		visited[current] = true
		next := -1
		for _, w := range graph[current] {
			if member[w] && (!visited[w] || w == start) {
				next = w
				break
			}
		}
		if next < 0 {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}

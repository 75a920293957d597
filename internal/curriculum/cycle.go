package curriculum

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/studygate/internal/store"
)

// ErrPrerequisiteCycle matches every *CycleError.
var ErrPrerequisiteCycle = errors.New("studygate: prerequisite cycle")

// CycleError reports a prerequisite cycle. Path starts and ends at the same
// skill and follows prerequisite links: Path[i] requires Path[i+1].
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("prerequisite cycle: %s", strings.Join(e.Path, " -> "))
}

// Is makes errors.Is(err, ErrPrerequisiteCycle) true for any *CycleError.
func (e *CycleError) Is(target error) bool {
	return target == ErrPrerequisiteCycle
}

// graph maps skill_id to its prerequisites, each list sorted.
type graph map[string][]string

func buildGraph(nodes []store.CurriculumNode) graph {
	g := make(graph, len(nodes))
	for _, n := range nodes {
		prereqs := append([]string(nil), n.Prereqs...)
		sort.Strings(prereqs)
		g[n.SkillID] = prereqs
	}
	return g
}

// sortedKeys returns every vertex, including prerequisites that have no
// node of their own, in lexical order.
func (g graph) sortedKeys() []string {
	seen := make(map[string]bool, len(g))
	var keys []string
	for k, prereqs := range g {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
		for _, p := range prereqs {
			if !seen[p] {
				seen[p] = true
				keys = append(keys, p)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// FindCycles reports every prerequisite cycle in nodes, one per strongly
// connected component, in a stable order. Each path starts at the
// lexically smallest skill of its component. An acyclic graph returns an
// empty slice.
//
// Uses Tarjan's algorithm.
func FindCycles(nodes []store.CurriculumNode) [][]string {
	g := buildGraph(nodes)

	cycles := [][]string{}
	for _, scc := range tarjanSCC(g) {
		if len(scc) == 1 && !g.hasSelfLoop(scc[0]) {
			continue
		}
		sort.Strings(scc)
		if path := pathWithin(g, scc[0], scc[0], toSet(scc)); path != nil {
			cycles = append(cycles, path)
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

func (g graph) hasSelfLoop(v string) bool {
	for _, w := range g[v] {
		if w == v {
			return true
		}
	}
	return false
}

func tarjanSCC(g graph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, v := range g.sortedKeys() {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}
	return sccs
}

// pathWithin returns a prerequisite path from -> ... -> to of at least one
// step, visiting only vertices in allowed (all vertices when allowed is
// nil). It returns nil when no such path exists.
func pathWithin(g graph, from, to string, allowed map[string]bool) []string {
	visited := make(map[string]bool)
	var path []string

	var dfs func(v string) bool
	dfs = func(v string) bool {
		path = append(path, v)
		for _, w := range g[v] {
			if allowed != nil && !allowed[w] {
				continue
			}
			if w == to {
				path = append(path, w)
				return true
			}
			if visited[w] {
				continue
			}
			visited[w] = true
			if dfs(w) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}

	if dfs(from) {
		return path
	}
	return nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// checkUpsert returns a *CycleError if replacing (or adding) node in
// existing would close a prerequisite cycle through it.
func checkUpsert(existing []store.CurriculumNode, node store.CurriculumNode) error {
	merged := make([]store.CurriculumNode, 0, len(existing)+1)
	for _, n := range existing {
		if n.SkillID != node.SkillID {
			merged = append(merged, n)
		}
	}
	merged = append(merged, node)

	if path := pathWithin(buildGraph(merged), node.SkillID, node.SkillID, nil); path != nil {
		return &CycleError{Path: path}
	}
	return nil
}

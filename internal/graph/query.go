package graph

import (
	"sort"

	"github.com/mewmew/sysgraph/internal/model"
)

// Unresolved is the sentinel syscall value that sorts last rather than
// lexicographically, mirroring resolve.Unresolved without importing the
// resolve package (the query layer has no need for the resolver itself).
const Unresolved = "?"

// Functions returns every function root, sorted.
func (g *Graph) Functions() []model.Symbol {
	out := append([]model.Symbol(nil), g.Roots...)
	sort.Strings(out)
	return out
}

// DirectCallees returns f's direct callees, sorted, or nil if f is
// unknown.
func (g *Graph) DirectCallees(f model.Symbol) []model.Symbol {
	summary, ok := g.Summaries[f]
	if !ok {
		return nil
	}
	return sortedKeys(summary.Callees)
}

// TransitiveCallees returns every function reachable from f over the
// callee relation, sorted, via breadth-first traversal with a visited
// set. f itself appears in the result only if it is reachable from
// itself (i.e. f lies on a cycle through itself).
func (g *Graph) TransitiveCallees(f model.Symbol) []model.Symbol {
	if _, ok := g.Summaries[f]; !ok {
		return nil
	}
	visited := make(map[model.Symbol]bool)
	queue := []model.Symbol{f}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		summary, ok := g.Summaries[cur]
		if !ok {
			continue
		}
		for callee := range summary.Callees {
			if visited[callee] {
				continue
			}
			visited[callee] = true
			queue = append(queue, callee)
		}
	}
	return sortedKeys(visited)
}

// DirectSyscalls returns f's direct syscall values, sorted with "?"
// (if present) appended last, or nil if f is unknown.
func (g *Graph) DirectSyscalls(f model.Symbol) []model.Symbol {
	summary, ok := g.Summaries[f]
	if !ok {
		return nil
	}
	return sortedSyscalls(summary.SyscallValues)
}

// TransitiveSyscalls returns the union of syscall values over f and every
// function in TransitiveCallees(f), sorted with "?" last.
func (g *Graph) TransitiveSyscalls(f model.Symbol) []model.Symbol {
	if _, ok := g.Summaries[f]; !ok {
		return nil
	}
	union := make(map[model.Symbol]bool)
	for _, fn := range g.closure(f) {
		for v := range g.Summaries[fn].SyscallValues {
			union[v] = true
		}
	}
	return sortedSyscalls(union)
}

// DirectMnemonics returns f's direct mnemonics, sorted, or nil if f is
// unknown.
func (g *Graph) DirectMnemonics(f model.Symbol) []model.Symbol {
	summary, ok := g.Summaries[f]
	if !ok {
		return nil
	}
	return sortedKeys(summary.Mnemonics)
}

// TransitiveMnemonics returns the union of mnemonics over f and every
// function in TransitiveCallees(f), sorted.
func (g *Graph) TransitiveMnemonics(f model.Symbol) []model.Symbol {
	if _, ok := g.Summaries[f]; !ok {
		return nil
	}
	union := make(map[model.Symbol]bool)
	for _, fn := range g.closure(f) {
		for m := range g.Summaries[fn].Mnemonics {
			union[m] = true
		}
	}
	return sortedKeys(union)
}

// closure returns f itself plus TransitiveCallees(f), the node set over
// which syscall and mnemonic unions are taken.
func (g *Graph) closure(f model.Symbol) []model.Symbol {
	out := []model.Symbol{f}
	return append(out, g.TransitiveCallees(f)...)
}

func sortedKeys(set map[model.Symbol]bool) []model.Symbol {
	out := make([]model.Symbol, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// sortedSyscalls sorts set ascending with the unresolved sentinel "?"
// moved to the end regardless of where it falls lexicographically.
func sortedSyscalls(set map[model.Symbol]bool) []model.Symbol {
	hasUnresolved := set[Unresolved]
	rest := make([]model.Symbol, 0, len(set))
	for k := range set {
		if k == Unresolved {
			continue
		}
		rest = append(rest, k)
	}
	sort.Strings(rest)
	if hasUnresolved {
		rest = append(rest, Unresolved)
	}
	return rest
}

// Package graph implements the Function Graph builder and the Query
// Interface over it: it partitions a parsed listing's label stream into
// functions, aggregates each function's callees, mnemonics and syscall
// values, and answers direct and transitive queries against the result.
package graph

import (
	"log"
	"os"

	"github.com/mewkiz/pkg/term"

	"github.com/mewmew/sysgraph/internal/model"
)

// dbg is a logger which logs debug messages with "graph:" prefix to
// standard error.
var dbg = log.New(os.Stderr, term.MagentaBold("graph:")+" ", 0)

// Summary is one function's aggregated data, keyed by its root label in
// Graph.Summaries.
type Summary struct {
	Callees       map[model.Symbol]bool
	Mnemonics     map[model.Symbol]bool
	SyscallValues map[model.Symbol]bool
}

func newSummary() *Summary {
	return &Summary{
		Callees:       make(map[model.Symbol]bool),
		Mnemonics:     make(map[model.Symbol]bool),
		SyscallValues: make(map[model.Symbol]bool),
	}
}

// Graph is the built function graph: the function roots in appearance
// order and each root's Summary.
type Graph struct {
	Roots     []model.Symbol
	Summaries map[model.Symbol]*Summary
}

// Build groups prog's labels into functions per §4.5: a label opens a new
// scope when it is in prog.Identified, or when no scope has been opened
// yet; otherwise it merges into the current scope. Every BlockItem in the
// label's block contributes its mnemonic, and (if Call or Syscall) its
// target or resolved value, to the enclosing scope's Summary.
func Build(prog *model.Program) *Graph {
	g := &Graph{Summaries: make(map[model.Symbol]*Summary)}

	var cur model.Symbol
	haveCur := false
	for _, label := range prog.Order {
		if prog.Identified[label] || !haveCur {
			cur, haveCur = label, true
			dbg.Printf("opening function scope %q", cur)
			g.Roots = append(g.Roots, cur)
			g.Summaries[cur] = newSummary()
		}
		summary := g.Summaries[cur]

		block := prog.Blocks[label]
		for _, item := range block.Items {
			if item.Mnemonic != "" {
				summary.Mnemonics[item.Mnemonic] = true
			}
			switch item.Kind {
			case model.ItemCall:
				if item.Target != "" {
					summary.Callees[item.Target] = true
				}
			case model.ItemSyscall:
				summary.SyscallValues[item.SyscallValue] = true
			}
		}
	}
	return g
}

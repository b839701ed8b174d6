// Package ssaexport renders a built function graph as an LLVM IR module:
// one bodiless ir.Function per function root, carrying its callee,
// syscall and mnemonic sets as attached metadata tuples rather than as
// named module-level metadata.
package ssaexport

import (
	"sort"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"

	"github.com/mewmew/sysgraph/internal/graph"
	"github.com/mewmew/sysgraph/internal/model"
)

// Export builds an LLVM IR module containing one function per root in g,
// in sorted order, each carrying its callee/syscall/mnemonic sets as
// "sysgraph.callees", "sysgraph.syscalls" and "sysgraph.mnemonics"
// metadata attachments.
func Export(g *graph.Graph) *ir.Module {
	module := &ir.Module{}
	for _, name := range g.Functions() {
		module.Funcs = append(module.Funcs, declareFunc(name, g))
	}
	return module
}

// declareFunc declares the bodiless, void-signature ir.Function for the
// given root, attaching its aggregated data as metadata.
func declareFunc(name model.Symbol, g *graph.Graph) *ir.Function {
	sig := types.NewFunc(types.Void)
	typ := types.NewPointer(sig)
	return &ir.Function{
		Name: name,
		Typ:  typ,
		Sig:  sig,
		Metadata: map[string]*metadata.Metadata{
			"sysgraph.callees":   tuple(g.DirectCallees(name)),
			"sysgraph.syscalls":  tuple(g.DirectSyscalls(name)),
			"sysgraph.mnemonics": tuple(g.DirectMnemonics(name)),
		},
	}
}

// tuple wraps vals (already sorted by the caller) as a metadata.Metadata
// whose Nodes are metadata.String values, one per entry.
func tuple(vals []model.Symbol) *metadata.Metadata {
	nodes := make([]metadata.Node, len(vals))
	for i, v := range vals {
		nodes[i] = &metadata.String{Val: v}
	}
	return &metadata.Metadata{Nodes: nodes}
}

// CalleesOf reads back the "sysgraph.callees" tuple attached to the
// function named name in module, as a sorted slice. Used by the IR export
// round-trip test (spec §8 property 7) to check the attached metadata
// against the graph's own DirectCallees without re-parsing textual IR.
func CalleesOf(module *ir.Module, name model.Symbol) ([]string, bool) {
	for _, f := range module.Funcs {
		if f.Name != name {
			continue
		}
		md, ok := f.Metadata["sysgraph.callees"]
		if !ok {
			return nil, true
		}
		out := make([]string, 0, len(md.Nodes))
		for _, n := range md.Nodes {
			s, ok := n.(*metadata.String)
			if !ok {
				continue
			}
			out = append(out, s.Val)
		}
		sort.Strings(out)
		return out, true
	}
	return nil, false
}

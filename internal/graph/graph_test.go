package graph

import (
	"reflect"
	"testing"

	"github.com/kr/pretty"

	"github.com/mewmew/sysgraph/internal/model"
)

func callItem(target string) *model.BlockItem {
	return &model.BlockItem{Kind: model.ItemCall, Mnemonic: "call", Target: target}
}

func syscallItem(mnemonic, value string) *model.BlockItem {
	return &model.BlockItem{Kind: model.ItemSyscall, Mnemonic: mnemonic, SyscallValue: value}
}

func plainItem(mnemonic string) *model.BlockItem {
	return &model.BlockItem{Kind: model.ItemInstruction, Mnemonic: mnemonic}
}

func TestBuildGroupsSubLabelsUnderRoot(t *testing.T) {
	prog := &model.Program{
		Order: []model.Symbol{"main", "main.loop"},
		Blocks: map[model.Symbol]*model.Block{
			"main":      {Items: []*model.BlockItem{plainItem("push")}},
			"main.loop": {Items: []*model.BlockItem{plainItem("add")}},
		},
		Identified: map[model.Symbol]bool{"main": true},
	}
	g := Build(prog)
	if len(g.Roots) != 1 || g.Roots[0] != "main" {
		t.Fatalf("Roots = %v, want [main] (main.loop should merge in)", g.Roots)
	}
	summary := g.Summaries["main"]
	if !summary.Mnemonics["push"] || !summary.Mnemonics["add"] {
		t.Errorf("summary = %# v, want mnemonics push and add", pretty.Formatter(summary))
	}
}

// Scenario 5: transitive closure with a cycle.
func TestTransitiveCalleesCycle(t *testing.T) {
	prog := &model.Program{
		Order: []model.Symbol{"a", "b"},
		Blocks: map[model.Symbol]*model.Block{
			"a": {Items: []*model.BlockItem{callItem("b")}},
			"b": {Items: []*model.BlockItem{callItem("a")}},
		},
		Identified: map[model.Symbol]bool{"a": true, "b": true},
	}
	g := Build(prog)
	want := []model.Symbol{"a", "b"}
	if got := g.TransitiveCallees("a"); !reflect.DeepEqual(got, want) {
		t.Errorf("TransitiveCallees(a) = %v, want %v: %# v", got, want, pretty.Diff(got, want))
	}
	if got := g.TransitiveCallees("b"); !reflect.DeepEqual(got, want) {
		t.Errorf("TransitiveCallees(b) = %v, want %v: %# v", got, want, pretty.Diff(got, want))
	}
}

func TestDirectCalleesContainmentInTransitive(t *testing.T) {
	prog := &model.Program{
		Order: []model.Symbol{"a", "b", "c"},
		Blocks: map[model.Symbol]*model.Block{
			"a": {Items: []*model.BlockItem{callItem("b")}},
			"b": {Items: []*model.BlockItem{callItem("c")}},
			"c": {},
		},
		Identified: map[model.Symbol]bool{"a": true, "b": true, "c": true},
	}
	g := Build(prog)
	direct := g.DirectCallees("a")
	transitive := g.TransitiveCallees("a")
	transSet := make(map[string]bool)
	for _, callee := range transitive {
		transSet[callee] = true
	}
	for _, d := range direct {
		if !transSet[d] {
			t.Errorf("direct callee %q not contained in transitive callees %v", d, transitive)
		}
	}
	want := []model.Symbol{"b", "c"}
	if !reflect.DeepEqual(transitive, want) {
		t.Errorf("TransitiveCallees(a) = %v, want %v", transitive, want)
	}
}

func TestSyscallsUnresolvedSortsLast(t *testing.T) {
	prog := &model.Program{
		Order: []model.Symbol{"foo"},
		Blocks: map[model.Symbol]*model.Block{
			"foo": {Items: []*model.BlockItem{
				syscallItem("svc", "93"),
				syscallItem("svc", Unresolved),
				syscallItem("svc", "4"),
			}},
		},
		Identified: map[model.Symbol]bool{"foo": true},
	}
	g := Build(prog)
	want := []model.Symbol{"4", "93", Unresolved}
	if got := g.DirectSyscalls("foo"); !reflect.DeepEqual(got, want) {
		t.Errorf("DirectSyscalls(foo) = %v, want %v", got, want)
	}
}

func TestUnknownFunctionQueriesReturnEmpty(t *testing.T) {
	g := Build(&model.Program{})
	if got := g.DirectCallees("nope"); got != nil {
		t.Errorf("DirectCallees(nope) = %v, want nil", got)
	}
	if got := g.TransitiveCallees("nope"); got != nil {
		t.Errorf("TransitiveCallees(nope) = %v, want nil", got)
	}
	if got := g.DirectSyscalls("nope"); got != nil {
		t.Errorf("DirectSyscalls(nope) = %v, want nil", got)
	}
}

func TestFunctionsSorted(t *testing.T) {
	prog := &model.Program{
		Order:      []model.Symbol{"zeta", "alpha"},
		Blocks:     map[model.Symbol]*model.Block{"zeta": {}, "alpha": {}},
		Identified: map[model.Symbol]bool{"zeta": true, "alpha": true},
	}
	g := Build(prog)
	want := []model.Symbol{"alpha", "zeta"}
	if got := g.Functions(); !reflect.DeepEqual(got, want) {
		t.Errorf("Functions() = %v, want %v", got, want)
	}
}

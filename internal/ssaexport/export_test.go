package ssaexport

import (
	"reflect"
	"testing"

	"github.com/mewmew/sysgraph/internal/graph"
	"github.com/mewmew/sysgraph/internal/model"
)

func TestExportRoundTripsCallees(t *testing.T) {
	prog := &model.Program{
		Order: []model.Symbol{"main"},
		Blocks: map[model.Symbol]*model.Block{
			"main": {Items: []*model.BlockItem{
				{Kind: model.ItemCall, Mnemonic: "call", Target: "puts"},
				{Kind: model.ItemCall, Mnemonic: "call", Target: "exit"},
			}},
		},
		Identified: map[model.Symbol]bool{"main": true},
	}
	g := graph.Build(prog)
	module := Export(g)

	if len(module.Funcs) != 1 {
		t.Fatalf("got %d funcs, want 1", len(module.Funcs))
	}
	if module.Funcs[0].Name != "main" {
		t.Fatalf("got func name %q, want %q", module.Funcs[0].Name, "main")
	}

	got, ok := CalleesOf(module, "main")
	if !ok {
		t.Fatal("CalleesOf: function not found")
	}
	want := g.DirectCallees("main")
	wantStrings := make([]string, len(want))
	for i, v := range want {
		wantStrings[i] = v
	}
	if !reflect.DeepEqual(got, wantStrings) {
		t.Errorf("CalleesOf(main) = %v, want %v", got, wantStrings)
	}
}

func TestExportUnknownFunctionNotFound(t *testing.T) {
	g := graph.Build(&model.Program{})
	module := Export(g)
	if _, ok := CalleesOf(module, "nope"); ok {
		t.Error("CalleesOf(nope) should report not found")
	}
}

// Package listing implements the disassembly Line Classifier and Block
// Builder: it turns a raw text listing into the per-label block sequence
// and identified-function-root set that the syscall resolver and
// function graph consume.
package listing

import (
	"github.com/mewmew/sysgraph/internal/archspec"
	"github.com/mewmew/sysgraph/internal/model"
	"github.com/mewmew/sysgraph/internal/resolve"
)

// standardRoots seeds IdentifiedFunctions before any label is seen.
var standardRoots = []model.Symbol{"main", "_start", "__start", "_init", "_fini"}

// builder is the Block Builder's running state across one pass over a
// classified line stream.
type builder struct {
	spec archspec.Spec

	order      []model.Symbol
	blocks     map[model.Symbol]*model.Block
	identified map[model.Symbol]bool

	cur       model.Symbol
	haveCur   bool
	dead      bool
	delaySlot int
}

// Parse runs the Line Classifier and Block Builder over lines (already
// split, in order) for the given architecture spec, and returns the
// resulting Program. extraRoots supplements the standard allow-list of
// function roots (main, _start, ...) with caller-supplied entry symbols,
// e.g. from a sidecar overrides file. Parse never fails: lines it cannot
// classify are silently skipped.
func Parse(spec archspec.Spec, lines []string, extraRoots ...model.Symbol) *model.Program {
	b := &builder{
		spec:       spec,
		blocks:     make(map[model.Symbol]*model.Block),
		identified: make(map[model.Symbol]bool),
	}
	for _, r := range standardRoots {
		b.identified[r] = true
	}
	for _, r := range extraRoots {
		b.identified[r] = true
	}
	for _, raw := range lines {
		b.step(classify(raw))
	}
	return &model.Program{
		Order:      b.order,
		Blocks:     b.blocks,
		Identified: b.identified,
	}
}

func (b *builder) step(l line) {
	switch l.kind {
	case lineLabel:
		b.openLabel(l.label)
	case lineInstruction:
		b.instruction(l)
	case lineRelocation:
		b.relocation(l.relocTarget)
	}
}

func (b *builder) openLabel(label model.Symbol) {
	dbg.Printf("openLabel(label = %q)", label)
	b.cur, b.haveCur = label, true
	b.order = append(b.order, label)
	b.blocks[label] = &model.Block{Label: label}
	b.dead = false
	b.delaySlot = 0
}

func (b *builder) curBlock() *model.Block {
	if !b.haveCur {
		// An instruction appeared before any label header; open an
		// anonymous block so we still record it rather than panic.
		warn.Printf("instruction precedes any label header; opening anonymous block")
		b.openLabel("")
	}
	return b.blocks[b.cur]
}

func (b *builder) instruction(l line) {
	if l.hasAddr {
		dbg.Printf("   %v: %s %s", l.addr, l.mnemonic, l.args)
	}

	if b.spec.Family == archspec.MIPS && l.mnemonic == "sll" && isMIPSZeroNOP(l.args) {
		return
	}

	if b.dead {
		return
	}
	consumedDelaySlot := false
	if b.delaySlot > 0 {
		b.delaySlot--
		consumedDelaySlot = b.delaySlot == 0
	}

	block := b.curBlock()
	item := &model.BlockItem{Kind: model.ItemInstruction, Mnemonic: l.mnemonic, Args: l.args}

	switch {
	case b.spec.CallMnemonics[l.mnemonic]:
		if target, ok := callTarget(l.args); ok && !model.IsSectionSymbol(target) {
			item.Kind = model.ItemCall
			item.Target = target
			b.identified[target] = true
		}
	case b.spec.SyscallMnemonics[l.mnemonic]:
		// Resolve before appending: the resolver backtracks over the
		// block's items so far, and must not see this syscall's own
		// not-yet-classified item as part of that history.
		item.Kind = model.ItemSyscall
		item.SyscallValue = resolve.Resolve(b.spec, b.blocks, b.order, b.cur, l.args)
	}
	block.Items = append(block.Items, item)

	if consumedDelaySlot {
		// This instruction was itself the delay slot: still live, but
		// everything after it is dead until the next label resets state.
		b.dead = true
	}
	if b.spec.IsTerminator(l.mnemonic, l.args) && b.spec.HasDelaySlot {
		b.delaySlot = 1
	}
}

func (b *builder) relocation(target model.Symbol) {
	block := b.curBlock()
	if model.IsSectionSymbol(target) {
		// A section marker names no callable function: leave the
		// pending instruction as-is rather than upgrading it to a Call
		// that points nowhere.
		return
	}
	b.identified[target] = true

	if n := len(block.Items); n > 0 {
		last := block.Items[n-1]
		if last.Kind == model.ItemInstruction || last.Kind == model.ItemCall {
			last.Kind = model.ItemCall
			last.Target = target
			last.FromRelocation = true
			return
		}
	}
	// No prior instruction to upgrade; append a synthetic call item.
	block.Items = append(block.Items, &model.BlockItem{
		Kind:           model.ItemCall,
		Target:         target,
		FromRelocation: true,
	})
}

// isMIPSZeroNOP reports whether args names the classic MIPS "sll
// $zero,$zero,0" NOP encoding: three operands, all zero synonyms.
func isMIPSZeroNOP(args string) bool {
	ops := archspec.SplitOperands(args)
	if len(ops) != 3 {
		return false
	}
	for _, op := range ops {
		if !archspec.IsZeroOperand(op) {
			return false
		}
	}
	return true
}

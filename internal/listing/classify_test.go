package listing

import "testing"

func TestClassifyLabel(t *testing.T) {
	l := classify("0000000000400510 <main>:")
	if l.kind != lineLabel || l.label != "main" {
		t.Fatalf("got %+v, want label %q", l, "main")
	}
}

func TestClassifyInstruction(t *testing.T) {
	l := classify("  400510:\t55 \tpush   %rbp")
	if l.kind != lineInstruction {
		t.Fatalf("got kind %v, want lineInstruction", l.kind)
	}
	if l.mnemonic != "push" || l.args != "%rbp" {
		t.Fatalf("got mnemonic %q args %q", l.mnemonic, l.args)
	}
}

func TestClassifyInstructionLowercasesMnemonic(t *testing.T) {
	l := classify("  400510:\t0f 05 \tSYSCALL")
	if l.mnemonic != "syscall" {
		t.Fatalf("got mnemonic %q, want lowercase", l.mnemonic)
	}
}

func TestClassifyDirectiveIsIgnored(t *testing.T) {
	l := classify("  400510:\t00 00 00 00 \t.word\t0x0")
	if l.kind != lineIgnore {
		t.Fatalf("got kind %v, want lineIgnore for directive", l.kind)
	}
}

func TestClassifyRelocation(t *testing.T) {
	l := classify("  400514:  R_AARCH64_CALL26  puts@plt+0x10")
	if l.kind != lineRelocation {
		t.Fatalf("got kind %v, want lineRelocation", l.kind)
	}
	if l.relocTarget != "puts" {
		t.Fatalf("got relocTarget %q, want %q", l.relocTarget, "puts")
	}
}

func TestClassifyBlankLineIsIgnored(t *testing.T) {
	l := classify("   ")
	if l.kind != lineIgnore {
		t.Fatalf("got kind %v, want lineIgnore for blank line", l.kind)
	}
}

func TestClassifySectionHeaderIsIgnored(t *testing.T) {
	l := classify("Disassembly of section .text:")
	if l.kind != lineIgnore {
		t.Fatalf("got kind %v, want lineIgnore for section header", l.kind)
	}
}

func TestCallTarget(t *testing.T) {
	target, ok := callTarget("400600 <puts+0x10>")
	if !ok || target != "puts" {
		t.Fatalf("callTarget() = (%q, %v), want (%q, true)", target, ok, "puts")
	}
	if _, ok := callTarget("%eax"); ok {
		t.Fatalf("callTarget(%%eax) should not match")
	}
}

// Package archspec holds the static, read-only per-architecture table
// consulted by the disassembly parser and the syscall resolver: the set
// of call mnemonics, the set of syscall mnemonics, the set of control-flow
// terminator mnemonics, whether the architecture has a branch delay slot,
// and the register that conventionally holds the syscall number.
package archspec

import (
	"regexp"
	"strings"
)

// Family names a canonical architecture entry. MIPS big- and
// little-endian share the "mips" entry.
type Family string

const (
	MIPS    Family = "mips"
	X86     Family = "x86"
	ARM     Family = "arm"
	AArch64 Family = "arm64"
	S390X   Family = "s390x"
)

// Spec is the static table entry for one architecture family.
type Spec struct {
	Family Family

	// CallMnemonics is the set of mnemonics that transfer control with a
	// return address (lowercase).
	CallMnemonics map[string]bool
	// SyscallMnemonics is the set of mnemonics that trap into the kernel.
	SyscallMnemonics map[string]bool
	// Terminators is the set of return, jump and branch mnemonics that
	// IsTerminator starts from. Besides returns and unconditional jumps it
	// lists conditional branches (e.g. x86 "je", MIPS "beqz", AArch64
	// "cbz"), which IsTerminator also reports as terminators; only ARM
	// "pop" and MIPS "beq"/"bne" are refined further.
	Terminators map[string]bool
	// HasDelaySlot reports whether the instruction textually following a
	// branch is always executed regardless of the branch's outcome.
	HasDelaySlot bool
	// SyscallReg matches (against argument text with register prefixes
	// "$"/"%" stripped) the register that conventionally holds the
	// syscall number at the point of a syscall instruction.
	SyscallReg *regexp.Regexp
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var specs = map[Family]Spec{
	MIPS: {
		Family:           MIPS,
		CallMnemonics:    set("jal", "jalr"),
		SyscallMnemonics: set("syscall"),
		Terminators: set(
			"j", "jr", "b",
			"beq", "bne", "beqz", "bnez",
			"bltz", "bgez", "blez", "bgtz",
			"bc1t", "bc1f",
		),
		HasDelaySlot: true,
		SyscallReg:   regexp.MustCompile(`\bv0\b`),
	},
	X86: {
		Family:           X86,
		CallMnemonics:    set("call", "callq"),
		SyscallMnemonics: set("syscall", "sysenter", "int"),
		Terminators: set(
			"ret", "retq", "retn", "jmp",
			"loop", "loope", "loopne",
			"ja", "jae", "jb", "jbe", "jcxz", "je", "jecxz",
			"jg", "jge", "jl", "jle", "jne", "jno", "jnp",
			"jns", "jo", "jp", "jrcxz", "js",
		),
		HasDelaySlot: false,
		SyscallReg:   regexp.MustCompile(`\b(eax|rax)\b`),
	},
	ARM: {
		Family:           ARM,
		CallMnemonics:    set("bl", "blx"),
		SyscallMnemonics: set("svc", "swi"),
		Terminators: set(
			"b", "bx", "pop",
			"beq", "bne", "bgt", "blt", "bge", "ble",
			"bcc", "bcs", "bmi", "bpl", "bvs", "bvc",
			"bhi", "bls",
		),
		HasDelaySlot: false,
		SyscallReg:   regexp.MustCompile(`\br7\b`),
	},
	AArch64: {
		Family:           AArch64,
		CallMnemonics:    set("bl", "blr"),
		SyscallMnemonics: set("svc"),
		Terminators: set(
			"ret", "b", "br",
			"b.eq", "b.ne", "b.gt", "b.lt", "b.ge", "b.le",
			"b.cc", "b.cs", "b.mi", "b.pl", "b.vs", "b.vc",
			"b.hi", "b.ls",
			"cbz", "cbnz", "tbz", "tbnz",
		),
		HasDelaySlot: false,
		SyscallReg:   regexp.MustCompile(`\b[wx]8\b`),
	},
	S390X: {
		Family:           S390X,
		CallMnemonics:    set("brasl", "basr", "bras"),
		SyscallMnemonics: set("svc"),
		Terminators:      set("br", "b", "bc", "bcr", "j", "jg"),
		HasDelaySlot:     false,
		SyscallReg:       regexp.MustCompile(`\br1\b`),
	},
}

// aliases maps the architecture selection tag (§6) to a canonical Family.
var aliases = map[string]Family{
	"mips":     MIPS,
	"mipsel":   MIPS,
	"mipsle":   MIPS,
	"mips64":   MIPS,
	"mips64el": MIPS,
	"mipsbe":   MIPS,

	"x86":    X86,
	"i386":   X86,
	"x86_64": X86,
	"amd64":  X86,

	"arm":   ARM,
	"armv7": ARM,
	"armv6": ARM,

	"arm64":   AArch64,
	"aarch64": AArch64,

	"s390x": S390X,
	"s390":  S390X,
}

// Lookup returns the Spec for the given architecture tag. Unknown tags
// fall back to the MIPS entry; ok is false in that case so the caller can
// surface the "unknown architecture" diagnostic required by spec §7.
func Lookup(name string) (spec Spec, ok bool) {
	fam, known := aliases[name]
	if !known {
		return specs[MIPS], false
	}
	return specs[fam], true
}

// zeroSynonyms are the textual spellings disassemblers use for register
// zero across the supported architectures.
var zeroSynonyms = map[string]bool{
	"0": true, "zero": true, "r0": true, "0x0": true,
}

// IsZeroOperand reports whether op (a single raw operand, possibly
// prefixed with "$" or "%") is a zero-register synonym.
func IsZeroOperand(op string) bool {
	return zeroSynonyms[StripRegPrefix(op)]
}

// StripRegPrefix removes the conventional register sigils "$" and "%".
func StripRegPrefix(s string) string {
	return strings.TrimLeft(strings.TrimSpace(s), "$%")
}

// SplitOperands splits an instruction's raw argument text on commas,
// trimming whitespace and dropping empty fields.
func SplitOperands(args string) []string {
	parts := strings.Split(args, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsTerminator implements the terminator test of spec §4.3.1: mnemonic
// must be in spec's terminator set, refined for ARM "pop" (only a
// terminator when its operands include "pc" or "r15") and MIPS
// "beq"/"bne" (only a terminator, i.e. unconditional, when both compared
// operands are zero synonyms).
func (spec Spec) IsTerminator(mnemonic, args string) bool {
	if !spec.Terminators[mnemonic] {
		return false
	}
	switch spec.Family {
	case ARM:
		if mnemonic == "pop" {
			for _, op := range SplitOperands(args) {
				if s := StripRegPrefix(op); s == "pc" || s == "r15" {
					return true
				}
			}
			return false
		}
	case MIPS:
		if mnemonic == "beq" || mnemonic == "bne" {
			ops := SplitOperands(args)
			if len(ops) < 2 {
				return false
			}
			return IsZeroOperand(ops[0]) && IsZeroOperand(ops[1])
		}
	}
	return true
}

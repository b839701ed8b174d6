package listing

import (
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/mewkiz/pkg/term"

	"github.com/mewmew/sysgraph/internal/addr"
	"github.com/mewmew/sysgraph/internal/model"
)

var (
	// dbg is a logger which logs debug messages with "listing:" prefix to
	// standard error.
	dbg = log.New(os.Stderr, term.MagentaBold("listing:")+" ", 0)
	// warn is a logger which logs warning messages with "warning:" prefix
	// to standard error.
	warn = log.New(os.Stderr, term.RedBold("warning:")+" ", 0)
)

// kind tags the classified shape of one input line.
type kind int

const (
	lineIgnore kind = iota
	lineLabel
	lineInstruction
	lineRelocation
)

// line is the classified form of one input line.
type line struct {
	kind kind

	// lineLabel
	label model.Symbol

	// lineInstruction
	addr     addr.Addr
	hasAddr  bool
	mnemonic string
	args     string

	// lineRelocation
	relocTarget model.Symbol
}

var (
	// Label header: an optional leading hex offset, then "<name>:".
	labelRe = regexp.MustCompile(`^[0-9a-fA-F]*\s*<([^<>]+)>:\s*$`)

	// Relocation annotation: "hex: R_TYPE target[@suffix][+-0xHEX]".
	relocRe = regexp.MustCompile(`^[0-9a-fA-F]+:\s+(R_[A-Za-z0-9_]+)\s+(\S.*?)\s*$`)

	// Instruction: "hex: (hexbyte )+ mnemonic [args...]".
	instRe = regexp.MustCompile(`^([0-9a-fA-F]+):\s+((?:[0-9a-fA-F]{2}\s+)+)(\S+)(?:\s+(.*?))?\s*$`)

	// Call target syntax inside instruction arguments: "<name>" or
	// "<name+0xHEX>".
	callTargetRe = regexp.MustCompile(`<([^<>+]+)(?:\+0x[0-9a-fA-F]+)?>`)

	// Trailing "@suffix" on a relocation target.
	relocSuffixRe = regexp.MustCompile(`@.*$`)
	// Trailing "+0xHEX" or "-0xHEX" displacement on a relocation target.
	relocDisplacementRe = regexp.MustCompile(`[+-]0x[0-9a-fA-F]+$`)
)

// classify recognizes one stripped text line. Recognizers are tried in
// order; the first match wins. Anything unrecognized, and any mnemonic
// beginning with ".", classifies as Ignore -- disassembler output is full
// of section headers, file headers and blank lines that must be skipped
// without complaint.
func classify(raw string) line {
	text := strings.TrimSpace(raw)
	if text == "" {
		return line{kind: lineIgnore}
	}

	if m := labelRe.FindStringSubmatch(text); m != nil {
		return line{kind: lineLabel, label: m[1]}
	}

	if m := relocRe.FindStringSubmatch(text); m != nil {
		return line{kind: lineRelocation, relocTarget: cleanRelocTarget(m[2])}
	}

	if m := instRe.FindStringSubmatch(text); m != nil {
		mnemonic := strings.ToLower(m[3])
		if strings.HasPrefix(mnemonic, ".") {
			return line{kind: lineIgnore}
		}
		l := line{kind: lineInstruction, mnemonic: mnemonic, args: m[4]}
		if a, ok := addr.ParseBare(m[1]); ok {
			l.addr, l.hasAddr = a, true
		}
		return l
	}

	return line{kind: lineIgnore}
}

// cleanRelocTarget strips a "@suffix" and a trailing "+0xHEX"/"-0xHEX"
// displacement from a relocation's target field.
func cleanRelocTarget(raw string) model.Symbol {
	s := strings.TrimSpace(raw)
	s = relocSuffixRe.ReplaceAllString(s, "")
	s = relocDisplacementRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// callTarget extracts the symbol named by "<name>" or "<name+0xHEX>"
// syntax from an instruction's argument text, if present.
func callTarget(args string) (model.Symbol, bool) {
	m := callTargetRe.FindStringSubmatch(args)
	if m == nil {
		return "", false
	}
	return m[1], true
}

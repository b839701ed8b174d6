// Package resolve implements the Syscall Value Resolver: given a syscall
// site, it determines the concrete syscall number by inspecting the
// syscall instruction's own immediate, backtracking through the current
// basic block for the most recent definition of the conventional syscall
// register, and optionally falling back to the linearly preceding block.
package resolve

import (
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/mewkiz/pkg/term"

	"github.com/mewmew/sysgraph/internal/archspec"
	"github.com/mewmew/sysgraph/internal/model"
)

// Unresolved is the sentinel returned when no syscall number can be
// determined.
const Unresolved = "?"

// dbg is a logger which logs debug messages with "resolve:" prefix to
// standard error.
var dbg = log.New(os.Stderr, term.MagentaBold("resolve:")+" ", 0)

var (
	memExprRe  = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	immTokenRe = regexp.MustCompile(`0x[0-9a-fA-F]+|-?\b\d+\b`)
)

// destructive, write and read classify a mnemonic touching the syscall
// register during the backward register scan (§4.4.1). Any mnemonic not
// listed in one of these falls through to the looser "fallback" policy.
var (
	destructive = set("ldr", "pop", "ldm", "lw", "ld", "lh", "lb", "lbu", "lhu")
	write       = set("mov", "mvn", "add", "sub", "li", "la", "or", "and", "eor", "xor",
		"lsl", "lsr", "asr", "ror", "clr", "move")
	read = set("cmp", "cmn", "tst", "teq", "str", "push", "beq", "bne", "sw", "sd",
		"st", "std", "test", "sh", "sb")
)

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Resolve determines the syscall value for the syscall instruction with
// the given raw arguments, issued from block cur of blocks (already
// populated up to and including cur's items preceding this syscall). The
// caller has not yet appended the syscall's own BlockItem.
func Resolve(spec archspec.Spec, blocks map[model.Symbol]*model.Block, order []model.Symbol, cur model.Symbol, args string) model.Symbol {
	dbg.Printf("Resolve(cur = %q, args = %q)", cur, args)

	// Step 1: an immediate embedded in the syscall instruction itself.
	if v, ok := extractImmediate(args); ok && v != "0" {
		return v
	}

	// Step 2: backtrack through the current block.
	curItems := blocks[cur].Items
	if v, resolved := registerScan(spec, curItems); resolved {
		return v
	}

	// Step 3: optionally fall back to the linear predecessor.
	if predBlock, ok := linearPredecessor(spec, blocks, order, cur); ok {
		if v, resolved := registerScan(spec, predBlock.Items); resolved {
			return v
		}
	}

	return Unresolved
}

// linearPredecessor returns the block immediately preceding cur in order,
// if it is connected to cur: it either falls through (its last
// instruction is not a terminator) or branches to cur (cur's name
// appears in its last instruction's arguments).
func linearPredecessor(spec archspec.Spec, blocks map[model.Symbol]*model.Block, order []model.Symbol, cur model.Symbol) (*model.Block, bool) {
	idx := -1
	for i, label := range order {
		if label == cur {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return nil, false
	}
	pred := blocks[order[idx-1]]
	if pred == nil || len(pred.Items) == 0 {
		return nil, false
	}
	last := pred.Items[len(pred.Items)-1]
	if !spec.IsTerminator(last.Mnemonic, last.Args) {
		return pred, true
	}
	if referencesLabel(last.Args, cur) {
		return pred, true
	}
	return nil, false
}

func referencesLabel(args, label model.Symbol) bool {
	if label == "" {
		return false
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(label) + `\b`)
	return re.MatchString(args)
}

// registerScan iterates items newest-to-oldest looking for the most
// recent definition of spec's syscall register (§4.4.1). resolved is
// false when the scan exhausts items without a conclusive result,
// signalling the caller to try the linear predecessor.
func registerScan(spec archspec.Spec, items []*model.BlockItem) (value model.Symbol, resolved bool) {
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if item.Kind != model.ItemInstruction {
			continue
		}
		stripped := stripRegPrefixes(item.Args)
		match := spec.SyscallReg.FindString(stripped)
		if match == "" {
			continue
		}
		suffix := trailingDigits(match)

		switch {
		case destructive[item.Mnemonic]:
			return Unresolved, true
		case write[item.Mnemonic]:
			v, ok := extractImmediate(item.Args)
			if !ok {
				return Unresolved, true
			}
			if v == suffix {
				continue
			}
			return v, true
		case read[item.Mnemonic]:
			continue
		default:
			// Fallback: treat as a potential write (favors recall).
			v, ok := extractImmediate(item.Args)
			if !ok {
				return Unresolved, true
			}
			if v == suffix {
				continue
			}
			return v, true
		}
	}
	return "", false
}

func stripRegPrefixes(args string) string {
	return strings.NewReplacer("$", "", "%", "").Replace(args)
}

func trailingDigits(s string) string {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	return s[i:]
}

// extractImmediate strips bracket- and paren-delimited memory
// expressions from args, then finds all hex or decimal integer tokens
// and returns the last one in decimal string form.
func extractImmediate(args string) (model.Symbol, bool) {
	cleaned := memExprRe.ReplaceAllString(args, "")

	matches := immTokenRe.FindAllString(cleaned, -1)
	if len(matches) == 0 {
		return "", false
	}
	last := matches[len(matches)-1]

	var n int64
	var err error
	if strings.HasPrefix(last, "0x") || strings.HasPrefix(last, "0X") {
		var u uint64
		u, err = strconv.ParseUint(last[2:], 16, 64)
		n = int64(u)
	} else {
		n, err = strconv.ParseInt(last, 10, 64)
	}
	if err != nil {
		return "", false
	}
	return strconv.FormatInt(n, 10), true
}

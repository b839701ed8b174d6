// Package addr provides a uniform representation of the hexadecimal
// offsets that prefix instruction and relocation lines in a disassembly
// listing. An Addr is parsed straight out of listing text rather than
// decoded from an object file, and carried alongside a classified line
// purely for dbg-trace diagnostics: it is never published in the
// function summary data model.
package addr

import (
	"fmt"
	"strconv"
)

// Addr is a virtual address.
type Addr uint64

// String returns the hexadecimal string representation of v.
func (v Addr) String() string {
	return fmt.Sprintf("0x%08X", uint64(v))
}

// ParseBare parses a bare hexadecimal offset with no "0x" prefix, the
// form a disassembler prints to the left of an instruction or relocation
// line (e.g. "400510:"). Returns ok=false rather than an error so callers
// classifying arbitrary listing lines can simply skip lines that fail to
// parse instead of treating them as fatal.
func ParseBare(s string) (Addr, bool) {
	x, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return Addr(x), true
}

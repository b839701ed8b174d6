// The sysgraph tool analyzes a disassembly listing and answers direct and
// transitive queries over the functions it identifies: their callees, the
// syscall numbers they issue, and the instruction mnemonics they execute.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/mewkiz/pkg/jsonutil"
	"github.com/mewkiz/pkg/osutil"
	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"

	"github.com/mewmew/sysgraph/internal/archspec"
	"github.com/mewmew/sysgraph/internal/graph"
	"github.com/mewmew/sysgraph/internal/listing"
	"github.com/mewmew/sysgraph/internal/ssaexport"
)

var (
	// dbg is a logger which logs debug messages with "sysgraph:" prefix to
	// standard error.
	dbg = log.New(os.Stderr, term.MagentaBold("sysgraph:")+" ", 0)
	// warn is a logger which logs warning messages with "warning:" prefix
	// to standard error.
	warn = log.New(os.Stderr, term.RedBold("warning:")+" ", 0)
)

// overrides is the shape of the optional -overrides JSON sidecar: a
// syscall-register pattern override and additional entry symbols to seed
// as function roots.
type overrides struct {
	SyscallReg string   `json:"syscall_reg"`
	ExtraRoots []string `json:"extra_roots"`
}

func main() {
	var (
		archTag       string
		quiet         bool
		format        string
		fn            string
		mode          string
		overridesPath string
	)
	flag.StringVar(&archTag, "arch", "mips", "architecture tag (mips, x86, arm, arm64, s390x)")
	flag.BoolVar(&quiet, "q", false, "suppress sysgraph's own debug messages (package debug traces and warnings still print)")
	flag.StringVar(&format, "format", "dump-graph", "dump-graph, list-functions, list-callees, list-syscalls, list-instructions, dump-ir")
	flag.StringVar(&fn, "func", "", "function name for per-function query formats")
	flag.StringVar(&mode, "mode", "direct", "direct or transitive")
	flag.StringVar(&overridesPath, "overrides", "", "optional JSON overrides file")
	flag.Parse()
	if quiet {
		dbg.SetOutput(ioutil.Discard)
	}

	args := flag.Args()
	path := "-"
	if len(args) > 0 {
		path = args[0]
	}

	lines, err := readLines(path)
	if err != nil {
		log.Fatalf("%+v", err)
	}

	spec, ok := archspec.Lookup(archTag)
	if !ok {
		warn.Printf("unknown architecture %q; falling back to mips", archTag)
	}

	var extraRoots []string
	if overridesPath != "" {
		ov, err := loadOverrides(overridesPath)
		if err != nil {
			log.Fatalf("%+v", err)
		}
		if ov.SyscallReg != "" {
			spec.SyscallReg = regexp.MustCompile(ov.SyscallReg)
		}
		extraRoots = ov.ExtraRoots
	}

	prog := listing.Parse(spec, lines, extraRoots...)
	g := graph.Build(prog)

	out, err := render(g, format, fn, mode)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	fmt.Println(out)
}

// readLines reads path (or standard input, when path is "-") into a slice
// of lines, the entire stream read eagerly so that parsing is
// deterministic and reparsable.
func readLines(path string) ([]string, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		defer f.Close()
		r = f
	}
	var lines []string
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return lines, nil
}

// loadOverrides loads the optional -overrides sidecar: warn-and-continue
// if the file is absent rather than treating it as an error.
func loadOverrides(path string) (overrides, error) {
	var ov overrides
	if !osutil.Exists(path) {
		warn.Printf("unable to locate overrides file %q", path)
		return ov, nil
	}
	dbg.Printf("loadOverrides(path = %q)", path)
	if err := jsonutil.ParseFile(path, &ov); err != nil {
		return ov, errors.WithStack(err)
	}
	return ov, nil
}

// render dispatches to the query surface (§6) and formats the result as
// text.
func render(g *graph.Graph, format, fn, mode string) (string, error) {
	transitive := mode == "transitive"
	switch format {
	case "dump-graph":
		return dumpGraph(g), nil
	case "list-functions":
		return strings.Join(g.Functions(), "\n"), nil
	case "list-callees":
		if transitive {
			return strings.Join(g.TransitiveCallees(fn), " "), nil
		}
		return strings.Join(g.DirectCallees(fn), " "), nil
	case "list-syscalls":
		if transitive {
			return strings.Join(g.TransitiveSyscalls(fn), " "), nil
		}
		return strings.Join(g.DirectSyscalls(fn), " "), nil
	case "list-instructions":
		if transitive {
			return strings.Join(g.TransitiveMnemonics(fn), " "), nil
		}
		return strings.Join(g.DirectMnemonics(fn), " "), nil
	case "dump-ir":
		module := ssaexport.Export(g)
		return module.String(), nil
	}
	return "", errors.Errorf("unrecognized -format %q", format)
}

// dumpGraph renders one line per function, in sorted order: its syscall
// values (if any) and its direct callees, per §6 item 1.
func dumpGraph(g *graph.Graph) string {
	var lines []string
	for _, f := range g.Functions() {
		var b strings.Builder
		b.WriteString(f)
		if syscalls := g.DirectSyscalls(f); len(syscalls) > 0 {
			fmt.Fprintf(&b, " [syscall: %s]", strings.Join(syscalls, ","))
		}
		callees := g.DirectCallees(f)
		if len(callees) == 0 {
			b.WriteString(" (no calls)")
		} else {
			fmt.Fprintf(&b, " -> %s", strings.Join(callees, ", "))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

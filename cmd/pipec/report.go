package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/gogpu/pipec"
)

// reportOptions select what is printed per pipeline.
type reportOptions struct {
	registers bool
	ir        bool
}

func writeReport(w io.Writer, name string, p *pipec.Pipeline, opts reportOptions) error {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s (%s) key=%s cached=%t code=%d bytes scratch=%d bytes/wave\n",
		name, p.Kind(), p.Key(), p.Cached(), p.CodeSize(), p.ScratchBytesPerWave())
	if ds := p.DynamicState(); ds != 0 {
		fmt.Fprintf(&b, "   dynamic: %s\n", ds)
	}

	for i, exe := range p.Executables() {
		fmt.Fprintf(&b, "-- %s (wave%d)\n", exe.Name, exe.SubgroupSize)
		stats, err := p.Statistics(i)
		if err != nil {
			return err
		}
		for _, s := range stats {
			if s.Name == "Driver pipeline hash" {
				fmt.Fprintf(&b, "   %-20s %#016x\n", s.Name, s.Value)
				continue
			}
			fmt.Fprintf(&b, "   %-20s %d\n", s.Name, s.Value)
		}
		if !opts.ir {
			continue
		}
		reps, err := p.Representations(i)
		if err != nil {
			return err
		}
		for _, r := range reps {
			fmt.Fprintf(&b, "   [%s]\n%s\n", r.Name, indent(r.Text, "      "))
		}
	}

	if opts.registers {
		fmt.Fprintf(&b, "-- registers (context hash %#016x)\n%s", p.ContextHash(), p.DumpRegisters())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}

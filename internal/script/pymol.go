// Package script assembles the PyMOL scripts run by alignment steps.
package script

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

const (
	// ReferenceHandle is the PyMOL object name the reference structure is loaded under.
	ReferenceHandle = "fusion"
	// ReportFile is the file the RMSD values are written to.
	ReportFile = "alignment_rmsds.txt"
)

// Candidate is a structure file that is aligned against the reference.
type Candidate struct {
	// Name is the file name, used as the PyMOL object name.
	Name string
	// Path is the full path passed to cmd.load.
	Path string
}

// Alignment returns a PyMOL script that loads reference and every candidate,
// aligns each candidate to the reference and writes one RMSD line per
// candidate to ReportFile. Candidates are processed in the given order.
//
// Every line of the result is trimmed, so the script never relies on
// indentation.
func Alignment(reference string, candidates []Candidate) string {
	loads := lo.Map(candidates, func(c Candidate, _ int) string {
		return fmt.Sprintf("cmd.load(%s, %s)", quote(c.Path), quote(c.Name))
	})
	aligns := lo.Map(candidates, func(c Candidate, _ int) string {
		return fmt.Sprintf(
			`f.write("RMSD (%s vs %%s): %%s\n" %% (%s, cmd.align(%s, %s)[0]))`,
			ReferenceHandle, quote(c.Path), quote(ReferenceHandle), quote(c.Name),
		)
	})

	body := fmt.Sprintf(`
		from pymol import cmd
		cmd.load(%s, %s)
		%s
		f = open(%s, "w")
		%s
		f.close()
		cmd.quit()
		`,
		quote(reference), quote(ReferenceHandle),
		strings.Join(loads, "\n\t\t"),
		quote(ReportFile),
		strings.Join(aligns, "\n\t\t"),
	)

	return Normalize(body)
}

// Normalize trims every line and joins the non-empty ones with a single newline.
// The result ends with a newline unless it is empty.
func Normalize(text string) string {
	lines := lo.FilterMap(strings.Split(text, "\n"), func(line string, _ int) (string, bool) {
		line = strings.TrimSpace(line)
		return line, line != ""
	})
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// quote renders s as a double-quoted Python string literal. Go and Python
// agree on every escape strconv.Quote emits for valid UTF-8. A byte that is
// not valid UTF-8 is written as the lone surrogate U+DCxx, which Python's
// filesystem encoding (surrogateescape) turns back into the original byte.
func quote(s string) string {
	if utf8.ValidString(s) {
		return strconv.Quote(s)
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			fmt.Fprintf(&sb, `\udc%02x`, s[0])
		} else {
			q := strconv.Quote(s[:size])
			sb.WriteString(q[1 : len(q)-1])
		}
		s = s[size:]
	}
	sb.WriteByte('"')
	return sb.String()
}

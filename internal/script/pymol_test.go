package script

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		name := fmt.Sprintf("c%d.pdb", i+1)
		out[i] = Candidate{Name: name, Path: "/data/cands/" + name}
	}
	return out
}

func countPrefix(lines []string, prefix string) int {
	var n int
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

func TestAlignment_NoCandidates(t *testing.T) {
	t.Parallel()

	got := Alignment("/data/p1.pdb", nil)
	expected := `from pymol import cmd
cmd.load("/data/p1.pdb", "fusion")
f = open("alignment_rmsds.txt", "w")
f.close()
cmd.quit()
`
	assert.Equal(t, expected, got)

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	assert.Equal(t, 1, countPrefix(lines, "cmd.load("))
	assert.Equal(t, 0, countPrefix(lines, "f.write("))
	assert.Equal(t, 1, countPrefix(lines, "f = open("))
	assert.Equal(t, 1, countPrefix(lines, "cmd.quit()"))
}

func TestAlignment_TwoCandidates(t *testing.T) {
	t.Parallel()

	got := Alignment("p1.pdb", candidates(2))
	expected := `from pymol import cmd
cmd.load("p1.pdb", "fusion")
cmd.load("/data/cands/c1.pdb", "c1.pdb")
cmd.load("/data/cands/c2.pdb", "c2.pdb")
f = open("alignment_rmsds.txt", "w")
f.write("RMSD (fusion vs %s): %s\n" % ("/data/cands/c1.pdb", cmd.align("fusion", "c1.pdb")[0]))
f.write("RMSD (fusion vs %s): %s\n" % ("/data/cands/c2.pdb", cmd.align("fusion", "c2.pdb")[0]))
f.close()
cmd.quit()
`
	assert.Equal(t, expected, got)
}

func TestAlignment_LineCounts(t *testing.T) {
	t.Parallel()

	for n := 0; n <= 5; n++ {
		t.Run(fmt.Sprintf("%d candidates", n), func(t *testing.T) {
			t.Parallel()
			got := Alignment("ref.pdb", candidates(n))
			lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")

			// reference plus one load per candidate
			assert.Equal(t, n+1, countPrefix(lines, "cmd.load("))
			assert.Equal(t, n, countPrefix(lines, "f.write("))
			assert.Len(t, lines, 5+2*n)

			for i, l := range lines {
				assert.Equal(t, strings.TrimSpace(l), l, "line %d has surrounding whitespace", i)
				assert.NotEmpty(t, l)
			}
		})
	}
}

func TestAlignment_PreservesCandidateOrder(t *testing.T) {
	t.Parallel()

	cands := []Candidate{
		{Name: "z.pdb", Path: "d/z.pdb"},
		{Name: "a.pdb", Path: "d/a.pdb"},
	}
	got := Alignment("ref.pdb", cands)
	assert.Less(t, strings.Index(got, `"z.pdb")`), strings.Index(got, `"a.pdb")`))
}

func TestAlignment_QuotesPaths(t *testing.T) {
	t.Parallel()

	got := Alignment(`/data/we"ird.pdb`, []Candidate{{Name: `b\s.pdb`, Path: `/x/b\s.pdb`}})
	assert.Contains(t, got, `cmd.load("/data/we\"ird.pdb", "fusion")`)
	assert.Contains(t, got, `cmd.load("/x/b\\s.pdb", "b\\s.pdb")`)
}

func TestAlignment_InvalidUTF8Path(t *testing.T) {
	t.Parallel()

	got := Alignment("ref.pdb", []Candidate{{Name: "a\xffb.pdb", Path: "/x/a\xffb.pdb"}})
	assert.Contains(t, got, `cmd.load("/x/a\udcffb.pdb", "a\udcffb.pdb")`)
	assert.NotContains(t, got, `\xff`)

	assert.Equal(t, `"é\t\udc80"`, quote("é\t\x80"))
	assert.Equal(t, strconv.Quote("plain é.pdb"), quote("plain é.pdb"))
}

func TestAlignment_Deterministic(t *testing.T) {
	t.Parallel()

	a := Alignment("ref.pdb", candidates(3))
	b := Alignment("ref.pdb", candidates(3))
	require.Equal(t, a, b)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: " \n\t\n", want: ""},
		{name: "trims both sides", in: "  a  \n\tb\t", want: "a\nb\n"},
		{name: "drops blank lines", in: "a\n\n   \nb\n", want: "a\nb\n"},
		{name: "keeps inner spaces", in: "  x = 1  ", want: "x = 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

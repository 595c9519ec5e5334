package core

import "fmt"

// Mode selects which kind of job a run performs.
type Mode string

const (
	// ModePredict predicts a structure for every FASTA file in a directory.
	ModePredict Mode = "predict"
	// ModeAlign aligns every reference structure against a directory of candidates.
	ModeAlign Mode = "align"
)

// ParseMode converts a configuration value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePredict, ModeAlign:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrUnknownMode, s)
	}
}

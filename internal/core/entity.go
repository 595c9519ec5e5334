package core

import (
	"path/filepath"
	"strings"
)

// EntityName derives the entity name from the stem of a path: the final
// path element without its last extension. A leading dot does not start an
// extension, so ".hidden" keeps its full name.
func EntityName(path string) (string, error) {
	base := filepath.Base(path)
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "", &NameResolutionError{Path: path}
	}

	ext := filepath.Ext(base)
	if ext == base {
		return base, nil
	}

	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		return "", &NameResolutionError{Path: path}
	}
	return stem, nil
}

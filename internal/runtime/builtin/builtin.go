// Package builtin registers the executors shipped with foldwork.
package builtin

import (
	_ "github.com/foldwork/foldwork/internal/runtime/builtin/direct"
	_ "github.com/foldwork/foldwork/internal/runtime/builtin/slurm"
)

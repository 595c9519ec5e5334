// Package tag provides standardized tag functions for structured logging.
//
// All tag keys use kebab-case naming convention for consistency.
// Use these functions instead of raw strings to ensure consistent
// log output across the codebase.
package tag

import (
	"log/slog"
	"time"
)

func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Error creates a tag for error objects.
func Error(err any) slog.Attr {
	return slog.Any("err", err)
}

// Step creates a tag for step names.
func Step(name string) slog.Attr {
	return slog.String("step", name)
}

// Entity creates a tag for the entity (molecule) being processed.
func Entity(name string) slog.Attr {
	return slog.String("entity", name)
}

// RunID creates a tag for run IDs.
func RunID(id string) slog.Attr {
	return slog.String("run-id", id)
}

// Mode creates a tag for the run mode.
func Mode(mode string) slog.Attr {
	return slog.String("mode", mode)
}

// Executor creates a tag for executor types.
func Executor(name string) slog.Attr {
	return slog.String("executor", name)
}

// JobID creates a tag for cluster scheduler job IDs.
func JobID(id string) slog.Attr {
	return slog.String("job-id", id)
}

// Index creates a tag for the position of an item in a batch.
func Index(i int) slog.Attr {
	return slog.Int("index", i)
}

// Count creates a tag for item counts.
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Failed creates a tag for the number of failed items.
func Failed(n int) slog.Attr {
	return slog.Int("failed", n)
}

// Path and file tags

// Path creates a tag for file system paths.
func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// Dir creates a tag for directories.
func Dir(d string) slog.Attr {
	return slog.String("dir", d)
}

// File creates a tag for file names.
func File(f string) slog.Attr {
	return slog.String("file", f)
}

// Dependency creates a tag for external tool names.
func Dependency(name string) slog.Attr {
	return slog.String("dependency", name)
}

// Timing tags

// Duration creates a tag for elapsed time.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// ExitCode creates a tag for process exit codes.
func ExitCode(code int) slog.Attr {
	return slog.Int("exit-code", code)
}

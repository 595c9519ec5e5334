package executor

import (
	"io"
	"sync"
)

// defaultStderrTailLimit is the fallback maximum number of bytes
// to retain from recent stderr output if no override is provided.
const defaultStderrTailLimit = 1024

// TailWriter forwards to an underlying writer and keeps a rolling
// tail of recent output up to `max` bytes. Safe for concurrent use.
type TailWriter struct {
	mu         sync.Mutex
	underlying io.Writer // may be nil
	max        int
	buf        []byte
}

// NewTailWriter creates a TailWriter that forwards writes to out and
// retains the last max bytes. If max <= 0 the package default is used.
func NewTailWriter(out io.Writer, max int) *TailWriter {
	if max <= 0 {
		max = defaultStderrTailLimit
	}
	return &TailWriter{underlying: out, max: max}
}

func (t *TailWriter) Write(p []byte) (int, error) {
	var n int
	var err error
	if t.underlying != nil {
		n, err = t.underlying.Write(p)
	} else {
		n = len(p)
	}

	t.mu.Lock()
	if len(p) > 0 {
		t.buf = append(t.buf, p...)
		if len(t.buf) > t.max {
			t.buf = t.buf[len(t.buf)-t.max:]
		}
	}
	t.mu.Unlock()

	return n, err
}

// Tail returns the retained output.
func (t *TailWriter) Tail() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

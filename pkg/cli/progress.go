package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// StreamPrinter writes streamed completion deltas as they arrive and keeps
// track of what was printed.
type StreamPrinter struct {
	mu      sync.Mutex
	writer  io.Writer
	started time.Time
	chunks  int
	chars   int
	done    bool
}

// NewStreamPrinter creates a printer that writes to w.
// If w is nil, it defaults to os.Stdout.
func NewStreamPrinter(w io.Writer) *StreamPrinter {
	if w == nil {
		w = os.Stdout
	}
	return &StreamPrinter{
		writer:  w,
		started: time.Now(),
	}
}

// Write prints one delta. Empty deltas are counted but print nothing.
func (p *StreamPrinter) Write(delta string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.chunks++
	if delta == "" {
		return nil
	}
	p.chars += len(delta)
	_, err := io.WriteString(p.writer, delta)
	return err
}

// Finish terminates the output line. It is safe to call more than once.
func (p *StreamPrinter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return
	}
	p.done = true
	if p.chars > 0 {
		fmt.Fprintln(p.writer)
	}
}

// Stats returns the number of chunks and bytes printed and the time since
// the printer was created.
func (p *StreamPrinter) Stats() (chunks, chars int, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chunks, p.chars, time.Since(p.started)
}

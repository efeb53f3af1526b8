package pkg

import (
	"io"
	"sync"

	"go.uber.org/multierr"
)

// CombinedWriter writes every message to all of its writers. A failing
// writer does not stop the others; its error is kept in Err.
type CombinedWriter struct {
	mu      sync.Mutex
	Writers []io.Writer
	Err     error
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	cw := &CombinedWriter{}
	for _, w := range writers {
		if w == nil {
			continue
		}
		cw.Writers = append(cw.Writers, w)
	}
	return cw
}

// Write reports len(p) when at least one writer took the whole message,
// so the logger keeps going while a single sink is broken.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	var (
		err       error
		delivered bool
	)
	for _, w := range cw.Writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		if written == len(p) {
			delivered = true
		}
	}

	cw.Err = multierr.Append(cw.Err, err)
	if delivered {
		return len(p), err
	}
	return 0, err
}

// Close closes every writer that is an io.Closer.
func (cw *CombinedWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	var err error
	for _, w := range cw.Writers {
		if closer, ok := w.(io.Closer); ok {
			err = multierr.Append(err, closer.Close())
		}
	}
	return err
}

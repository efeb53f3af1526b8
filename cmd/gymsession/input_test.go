package main

import (
	"io"
)

// newBlockingInput returns a reader that blocks until the returned close func is called.
func newBlockingInput() (io.Reader, func()) {
	reader, writer := io.Pipe()
	return reader, func() {
		_ = writer.Close()
	}
}

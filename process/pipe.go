package process

import (
	"io"
	"os"
)

// PipeReader is the parent-retained read end of a pipe connected to a
// child's stdout or stderr. Close is idempotent; once closed the endpoint
// is retired and never polled or read again.
type PipeReader struct {
	f *os.File

	// pty marks an endpoint backed by a pseudo-terminal master, whose
	// EOF surfaces as EIO rather than a zero-length read.
	pty bool
}

// IsOpen reports whether the endpoint is still open.
func (r *PipeReader) IsOpen() bool {
	return r != nil && r.f != nil
}

// Read reads from the pipe. It blocks until data is available or the
// child closes its end, in which case it returns io.EOF.
func (r *PipeReader) Read(p []byte) (int, error) {
	if !r.IsOpen() {
		return 0, io.EOF
	}
	n, err := r.f.Read(p)
	if err != nil {
		if err == io.EOF || (r.pty && isPtyEOF(err)) {
			return n, io.EOF
		}
		return n, err
	}
	return n, nil
}

// Close closes the endpoint. Closing an already-closed endpoint is a no-op.
func (r *PipeReader) Close() error {
	if !r.IsOpen() {
		return nil
	}
	f := r.f
	r.f = nil
	return f.Close()
}

func (r *PipeReader) fd() uintptr {
	return r.f.Fd()
}

// PipeWriter is the parent-retained write end of a pipe connected to a
// child's stdin.
type PipeWriter struct {
	f *os.File
}

// IsOpen reports whether the endpoint is still open.
func (w *PipeWriter) IsOpen() bool {
	return w != nil && w.f != nil
}

// Write writes to the pipe, blocking until the OS buffer accepts the
// bytes or the child closes its end.
func (w *PipeWriter) Write(p []byte) (int, error) {
	if !w.IsOpen() {
		return 0, ErrStdinNotPiped
	}
	return w.f.Write(p)
}

// Close closes the endpoint, delivering EOF to a child reading the other
// end. Closing an already-closed endpoint is a no-op.
func (w *PipeWriter) Close() error {
	if !w.IsOpen() {
		return nil
	}
	f := w.f
	w.f = nil
	return f.Close()
}

// newOutputPipe creates an anonymous pipe for a child output stream: the
// parent retains the read end, the returned file is the child-side write
// end. Both ends come back with inheritance disabled (close-on-exec on
// POSIX, non-inheritable handles on Windows), so the parent end is never
// leaked into unrelated future children; the spawn path makes only the
// child-side end visible to the new process.
func newOutputPipe() (*PipeReader, *os.File, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	return &PipeReader{f: r}, w, nil
}

// newInputPipe creates an anonymous pipe for the child's stdin: the
// parent retains the write end, the returned file is the child-side read
// end. Inheritance semantics match newOutputPipe.
func newInputPipe() (*PipeWriter, *os.File, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	return &PipeWriter{f: w}, r, nil
}

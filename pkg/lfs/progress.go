package lfs

import "io"

///////////////////////////////////////////////////////////////////////////////
// TYPES

// progressReader reports the fraction of bytes read, at most once every
// progressInterval bytes. Reported fractions never decrease.
type progressReader struct {
	r        io.Reader
	total    int64
	written  int64
	lastEmit int64
	last     float64
	fn       func(float64)
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const progressInterval = 64 * 1024

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newProgressReader(r io.Reader, total int64, fn func(float64)) *progressReader {
	return &progressReader{r: r, total: total, fn: fn}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.count(n)
	return n, err
}

// count adds n transferred bytes
func (r *progressReader) count(n int) {
	if n <= 0 {
		return
	}
	r.written += int64(n)
	if r.written-r.lastEmit >= progressInterval || r.written >= r.total {
		r.lastEmit = r.written
		if r.total > 0 {
			r.emit(float64(r.written) / float64(r.total))
		}
	}
}

// done reports completion unless it was already reported
func (r *progressReader) done() {
	r.emit(1)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (r *progressReader) emit(fraction float64) {
	if fraction > 1 {
		fraction = 1
	}
	if r.fn == nil || fraction <= r.last {
		return
	}
	r.last = fraction
	r.fn(fraction)
}

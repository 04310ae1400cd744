package body

import "io"

// Tee duplicates a stream body into two independent readers that both
// see the same bytes: a pass-through stream is not safely teeable by
// reference, so Clone must install two pipes fed by one pump
// goroutine, exactly as spec.md §4.7 requires. A multipart-form is
// never teed this way (it is not safely tee-able); Clone keeps a Form
// body by reference instead, relying on it being streamed fresh each
// time it is written to the wire.
func Tee(v Value) (a, b Value) {
	if v.Kind != KindStream {
		return v, v
	}
	pr1, pw1 := io.Pipe()
	pr2, pw2 := io.Pipe()
	go func() {
		mw := io.MultiWriter(pw1, pw2)
		_, err := io.Copy(mw, v.Stream)
		pw1.CloseWithError(err)
		pw2.CloseWithError(err)
	}()
	return Stream(pr1), Stream(pr2)
}

// CanClone reports whether a holder with this value and disturbed
// state may be cloned.
func CanClone(disturbed bool) bool { return !disturbed }

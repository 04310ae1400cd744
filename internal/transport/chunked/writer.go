package chunked

import (
	"fmt"
	"io"
	"net/http"
)

// NewChunkedWriter wraps w so that each Write emits its payload as one
// HTTP/1.1 chunk; CloseWithTrailer emits the terminating zero-length
// chunk and an optional trailer section.
func NewChunkedWriter(w io.Writer) *chunkWriter {
	return &chunkWriter{wire: w}
}

type chunkWriter struct {
	wire io.Writer
}

// Write emits data as a single chunk: size line, payload, CRLF. A
// zero-length Write is a no-op, since an empty chunk on the wire would
// itself signal end-of-body.
func (cw *chunkWriter) Write(data []byte) (n int, err error) {
	if len(data) == 0 {
		return 0, nil
	}

	if _, err = fmt.Fprintf(cw.wire, "%x\r\n", len(data)); err != nil {
		return 0, err
	}
	if n, err = cw.wire.Write(data); err != nil {
		return
	}
	if n != len(data) {
		return n, io.ErrShortWrite
	}
	if _, err = io.WriteString(cw.wire, "\r\n"); err != nil {
		return n, err
	}
	if f, ok := cw.wire.(interface{ Flush() error }); ok {
		err = f.Flush()
	}
	return n, err
}

// CloseWithTrailer writes the terminating zero-length chunk, followed
// by trailer as a block of header lines when non-empty, per RFC 7230
// §4.1.2.
func (cw *chunkWriter) CloseWithTrailer(trailer http.Header) error {
	if _, err := io.WriteString(cw.wire, "0\r\n"); err != nil {
		return err
	}
	for k, vs := range trailer {
		for _, v := range vs {
			if _, err := fmt.Fprintf(cw.wire, "%s: %s\r\n", k, v); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(cw.wire, "\r\n")
	return err
}

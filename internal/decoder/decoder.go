// Package decoder implements the Response Decoder (spec.md §4.6):
// picking a decompression transform from Content-Encoding, tolerating
// slightly malformed gzip trailers, and otherwise passing the raw
// body stream through unchanged. It never pre-buffers; size/timeout
// enforcement happens later, in body.Mixin.consume.
package decoder

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// Decode wraps raw according to the response's Content-Encoding,
// status, and method, per the rules in spec.md §4.6.
func Decode(raw io.Reader, h http.Header, status int, method string, compress bool) io.Reader {
	if !compress || status == 204 || status == 304 || method == "HEAD" {
		return raw
	}
	enc := strings.ToLower(h.Get("Content-Encoding"))
	switch enc {
	case "gzip", "x-gzip":
		return newTolerantGzipReader(raw)
	case "deflate":
		return newDeflateReader(raw)
	default:
		return raw
	}
}

// tolerantGzipReader lazily initializes a *gzip.Reader on first Read
// (so Decode itself never reads the gzip header off the wire; that
// happens when the body is consumed) and treats a
// truncated trailer as a clean end of stream rather than an error —
// "slightly invalid" gzip streams still yield clean decoded output.
type tolerantGzipReader struct {
	src io.Reader
	zr  *gzip.Reader
	err error
}

func newTolerantGzipReader(r io.Reader) io.Reader {
	return &tolerantGzipReader{src: r}
}

func (g *tolerantGzipReader) Read(p []byte) (int, error) {
	if g.zr == nil {
		if g.err == nil {
			g.zr, g.err = gzip.NewReader(g.src)
		}
		if g.err != nil {
			return 0, g.err
		}
	}
	n, err := g.zr.Read(p)
	if err != nil && isTruncatedTrailer(err) {
		if n > 0 {
			return n, nil
		}
		return 0, io.EOF
	}
	return n, err
}

func (g *tolerantGzipReader) Close() error {
	if c, ok := g.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Abort forwards to the underlying source's own Abort, preserving the
// abort-vs-clean-close distinction through the decompression layer.
func (g *tolerantGzipReader) Abort() error {
	if a, ok := g.src.(interface{ Abort() error }); ok {
		return a.Abort()
	}
	return g.Close()
}

// isTruncatedTrailer reports whether err marks the end of the input:
// io.EOF, or the io.ErrUnexpectedEOF gzip.Reader produces when the
// stream ends before the 8-byte CRC32+ISIZE trailer is complete. Input
// cut short inside the compressed data yields the same
// io.ErrUnexpectedEOF and is matched too; other errors (corrupt data,
// checksum mismatch) are not.
func isTruncatedTrailer(err error) bool {
	return err == io.ErrUnexpectedEOF || err == io.EOF
}

// newDeflateReader peeks the first byte of the payload to decide
// between zlib-wrapped and raw deflate framing: a zlib header's first
// byte carries CM=8 ("deflate") in its low nibble (see
// looksLikeZlibHeader). Legacy servers that omit the zlib wrapper get
// raw inflate instead.
func newDeflateReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	first, err := br.Peek(1)
	if err != nil {
		return flate.NewReader(br)
	}
	if looksLikeZlibHeader(first[0]) {
		return &zlibReader{br: br}
	}
	return flate.NewReader(br)
}

// looksLikeZlibHeader applies the observed heuristic: a zlib stream's
// first byte has CM (compression method, low nibble) == 8 ("deflate").
func looksLikeZlibHeader(b byte) bool {
	return b&0x0f == 0x08
}

// zlibReader lazily opens compress/zlib on first Read, matching the
// gzip reader's lazy-init shape.
type zlibReader struct {
	br *bufio.Reader
	zr io.Reader
}

func (z *zlibReader) Read(p []byte) (int, error) {
	if z.zr == nil {
		r, err := newZlibReader(z.br)
		if err != nil {
			return 0, err
		}
		z.zr = r
	}
	return z.zr.Read(p)
}

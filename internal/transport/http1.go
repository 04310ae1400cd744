// Package transport implements the HTTP/1.1 wire codec: writing a
// PreparedRequest's request line/headers/body and reading back a raw
// status line/headers/body framing. This is the "platform HTTP stack"
// spec.md treats as an external collaborator — adapted from the
// teacher's internal/transport/http1.go, generalized from net/http
// types to model.PreparedRequest/RawResponse.
package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/frankli0324/go-fetch/internal/model"
	"github.com/frankli0324/go-fetch/internal/transport/chunked"
)

// RawResponse is the unprocessed result of one HTTP/1.1 exchange,
// before the Response Decoder picks a decompression transform.
type RawResponse struct {
	Proto         string
	Status        string
	StatusCode    int
	Header        http.Header
	ContentLength int64
	Body          io.ReadCloser
}

type bodyCloser struct {
	io.Reader
	closer io.Closer
}

func (b bodyCloser) Close() error { return b.closer.Close() }

// Abort forwards to the underlying closer's own Abort when the
// connection backing this body was left with unread bytes, so a
// pooled connection is torn down instead of handed back with stale
// wire bytes still pending. Closers with no Abort (e.g. a plain
// net.Conn with no pool behind it) just get a normal Close.
func (b bodyCloser) Abort() error {
	if a, ok := b.closer.(interface{ Abort() error }); ok {
		return a.Abort()
	}
	return b.closer.Close()
}

// Write serializes req to w: request line, Host, Content-Length (or
// Transfer-Encoding: chunked when the length is unknown), remaining
// headers, then the body.
func Write(ctx context.Context, w io.Writer, req *model.PreparedRequest) error {
	body, err := req.GetBody()
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(w, 4096)
	if _, err := bw.WriteString(req.Method); err != nil {
		return err
	}
	bw.WriteByte(' ')
	bw.WriteString(req.U.RequestURI())
	bw.WriteString(" HTTP/1.1\r\n")

	bw.WriteString("Host: ")
	bw.WriteString(req.HeaderHost)
	bw.WriteString("\r\n")

	chunkedBody := req.ContentLength < 0 && body != nil
	if chunkedBody {
		bw.WriteString("Transfer-Encoding: chunked\r\n")
	} else if req.ContentLength >= 0 {
		bw.WriteString("Content-Length: ")
		bw.WriteString(strconv.FormatInt(req.ContentLength, 10))
		bw.WriteString("\r\n")
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			bw.WriteString(k)
			bw.WriteString(": ")
			bw.WriteString(v)
			bw.WriteString("\r\n")
		}
	}
	bw.WriteString("\r\n")
	if err := bw.Flush(); err != nil {
		return err
	}

	if body == nil {
		return nil
	}
	if chunkedBody {
		cw := chunked.NewChunkedWriter(w)
		if _, err := io.Copy(cw, body); err != nil {
			return err
		}
		return cw.CloseWithTrailer(nil)
	}
	_, err = io.Copy(w, body)
	return err
}

// Read parses the status line, headers, and establishes the body
// framing (chunked, fixed Content-Length, or none) from r.
func Read(ctx context.Context, r io.Reader, resp *RawResponse) error {
	closer := io.NopCloser
	if c, ok := r.(io.Closer); ok {
		closer = func(r io.Reader) io.ReadCloser { return bodyCloser{r, c} }
	}
	tp := textproto.NewReader(bufio.NewReader(r))

	line, err := tp.ReadLine()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	proto, status, ok := strings.Cut(line, " ")
	if !ok {
		return errors.New("malformed HTTP response")
	}
	resp.Proto = proto
	resp.Status = strings.TrimLeft(status, " ")

	codeStr, _, _ := strings.Cut(resp.Status, " ")
	if len(codeStr) != 3 {
		return errors.New("malformed HTTP status code " + codeStr)
	}
	resp.StatusCode, err = strconv.Atoi(codeStr)
	if err != nil || resp.StatusCode < 0 {
		return errors.New("malformed HTTP status code")
	}

	mimeHeader, err := tp.ReadMIMEHeader()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	resp.Header = http.Header(mimeHeader)

	return readTransfer(tp.R, resp, closer)
}

func readTransfer(r io.Reader, resp *RawResponse, closer func(io.Reader) io.ReadCloser) error {
	contentLens := resp.Header["Content-Length"]
	if len(contentLens) > 1 {
		first := textproto.TrimString(contentLens[0])
		for _, ct := range contentLens[1:] {
			if first != textproto.TrimString(ct) {
				return fmt.Errorf("http: message cannot contain multiple Content-Length headers; got %q", contentLens)
			}
		}
		resp.Header.Del("Content-Length")
		resp.Header.Add("Content-Length", first)
		contentLens = resp.Header["Content-Length"]
	}

	cl := int64(-1)
	if len(contentLens) > 0 {
		if n, err := strconv.ParseUint(contentLens[0], 10, 63); err == nil {
			cl = int64(n)
		}
	}

	if strings.EqualFold(resp.Header.Get("Transfer-Encoding"), "chunked") {
		resp.ContentLength = -1
		resp.Body = closer(chunked.NewChunkedReader(r))
		return nil
	}

	resp.Header.Del("Content-Length")
	resp.ContentLength = cl
	switch {
	case cl > 0:
		resp.Body = closer(io.LimitReader(r, cl))
	case cl == 0:
		closer(nil).Close()
		resp.Body = http.NoBody
	default:
		// no Content-Length, no chunked framing: read until the
		// connection closes.
		resp.Body = closer(r)
	}
	return nil
}

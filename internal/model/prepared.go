package model

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/frankli0324/go-fetch/body"
	"github.com/frankli0324/go-fetch/ferror"
	"github.com/frankli0324/go-fetch/internal/header"
)

// PreparedRequest is the wire-ready view of a Request: parsed URL,
// guarded headers, and a GetBody accessor the dial stack uses to
// obtain a writer-ready reader. Adapted from the teacher's
// model.PreparedRequest, generalized from Go's many concrete body
// types to the single body.Value tagged union.
type PreparedRequest struct {
	*Request

	U          *url.URL
	Header     map[string][]string
	HeaderHost string

	ContentLength int64

	// GetBody yields a fresh reader over the body every time it can
	// (replayable kinds); for a one-shot stream/form it is usable only
	// once, mirroring net/http.Request.GetBody's contract.
	GetBody func() (io.Reader, error)
}

// Prepare parses r.URL, runs the Header Guard, and resolves a
// GetBody accessor appropriate to the body's kind.
func (r *Request) Prepare() (*PreparedRequest, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, ferror.NewArgument("Only absolute URLs are supported", err)
	}
	if !u.IsAbs() {
		return nil, ferror.NewArgument("Only absolute URLs are supported", nil)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ferror.NewArgument("Only HTTP(S) protocols are supported", nil)
	}

	h := r.Header.Clone()
	host := u.Host
	for k, v := range h {
		if strings.EqualFold(k, "host") {
			if len(v) != 0 {
				host = v[0]
			}
			h.Del(k)
		}
	}
	if host == "" {
		return nil, ferror.NewArgument("empty host", nil)
	}

	v := r.Mixin.Peek()
	cl := header.Guard(h, v, r.Compress)

	pr := &PreparedRequest{
		Request:       r,
		U:             u,
		Header:        h,
		HeaderHost:    host,
		ContentLength: cl,
	}
	pr.GetBody = pr.makeGetBody(v)
	return pr, nil
}

func (pr *PreparedRequest) makeGetBody(v body.Value) func() (io.Reader, error) {
	if v.Replayable() {
		return func() (io.Reader, error) {
			pr2, pw := io.Pipe()
			go func() {
				pw.CloseWithError(body.WriteToStream(context.Background(), pw, v))
			}()
			return pr2, nil
		}
	}
	once := atomic.Bool{}
	return func() (io.Reader, error) {
		if !once.CompareAndSwap(false, true) {
			return nil, io.ErrClosedPipe
		}
		pr2, pw := io.Pipe()
		go func() {
			pw.CloseWithError(body.WriteToStream(context.Background(), pw, v))
		}()
		return pr2, nil
	}
}

// ContentLengthString renders ContentLength for the wire, or "" when
// the length is unknown (chunked framing applies instead).
func (pr *PreparedRequest) ContentLengthString() string {
	if pr.ContentLength < 0 {
		return ""
	}
	return strconv.FormatInt(pr.ContentLength, 10)
}

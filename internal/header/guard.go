// Package header implements the Header Guard (spec.md §4.5): the
// default-header insertion and content-type/length inference applied
// to every outbound request before it reaches the dial stack.
package header

import (
	"net/http"
	"strconv"

	"github.com/frankli0324/go-fetch/body"
)

// Version is embedded in the default User-Agent, following node-fetch's
// "node-fetch/<version>" convention.
const Version = "0.1.0"

// Guard normalizes h in place for dispatch. v is the request body: a
// non-null v gets an inferred Content-Type when h has none, and any v
// of known length (null included) sets Content-Length. It returns the
// inferred Content-Length, or -1 when the body's length is unknown
// (the caller must then use chunked transfer framing).
func Guard(h http.Header, v body.Value, compress bool) (contentLength int64) {
	if h.Get("User-Agent") == "" {
		h.Set("User-Agent", "go-fetch/"+Version)
	}
	if h.Get("Accept") == "" {
		h.Set("Accept", "*/*")
	}
	if compress && h.Get("Accept-Encoding") == "" {
		h.Set("Accept-Encoding", "gzip,deflate")
	}

	if !v.IsNull() {
		if h.Get("Content-Type") == "" {
			if ct := body.ExtractContentType(v); ct != "" {
				h.Set("Content-Type", ct)
			}
		}
	}

	if n, known := body.GetTotalBytes(v); known {
		h.Set("Content-Length", strconv.FormatInt(n, 10))
		return n
	}
	h.Del("Content-Length")
	return -1
}

// StripBodyHeaders removes the headers that no longer apply once a
// redirect hop drops the outbound body (spec.md §4.4).
func StripBodyHeaders(h http.Header) {
	h.Del("Content-Length")
	h.Del("Content-Type")
}

package header

import (
	"net/http"

	"github.com/frankli0324/go-fetch/ferror"
)

// From builds an http.Header from any of the shapes spec.md §4.3
// allows: a plain record (map[string]string), a Map
// (map[string][]string), a tuple iterable ([][2]string), or another
// Header. Header names containing disallowed octets fail with a
// TypeError-kind error.
func From(v any) (http.Header, error) {
	h := make(http.Header)
	switch t := v.(type) {
	case nil:
		return h, nil
	case http.Header:
		for k, vs := range t {
			if !validToken(k) {
				return nil, ferror.NewArgument("invalid header name: "+k, nil)
			}
			h[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
		}
	case map[string][]string:
		for k, vs := range t {
			if !validToken(k) {
				return nil, ferror.NewArgument("invalid header name: "+k, nil)
			}
			for _, val := range vs {
				h.Add(k, val)
			}
		}
	case map[string]string:
		for k, val := range t {
			if !validToken(k) {
				return nil, ferror.NewArgument("invalid header name: "+k, nil)
			}
			h.Add(k, val)
		}
	case [][2]string:
		for _, kv := range t {
			if !validToken(kv[0]) {
				return nil, ferror.NewArgument("invalid header name: "+kv[0], nil)
			}
			h.Add(kv[0], kv[1])
		}
	default:
		return nil, ferror.NewArgument("unsupported headers value", nil)
	}
	return h, nil
}

// validToken reports whether s is a legal HTTP header field-name
// token per RFC 7230 §3.2.6.
func validToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isTokenChar(s[i]) {
			return false
		}
	}
	return true
}

func isTokenChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

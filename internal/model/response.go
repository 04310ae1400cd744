package model

import (
	"context"
	"net/http"
	"strings"

	"github.com/frankli0324/go-fetch/body"
	"github.com/frankli0324/go-fetch/ferror"
)

// Response is the result of one fetch: status, final URL, headers,
// and a streaming body plus the shared consumption Mixin.
type Response struct {
	*body.Mixin

	URL        string
	Status     int
	StatusText string
	Header     http.Header
}

type responseOptions struct {
	url        string
	status     int
	statusText string
	header     http.Header
	cfg        body.Config
}

type ResponseOption func(*responseOptions)

func WithURL(u string) ResponseOption         { return func(o *responseOptions) { o.url = u } }
func WithStatus(s int) ResponseOption         { return func(o *responseOptions) { o.status = s } }
func WithStatusText(s string) ResponseOption  { return func(o *responseOptions) { o.statusText = s } }
func WithResponseHeader(h http.Header) ResponseOption {
	return func(o *responseOptions) { o.header = h }
}
func WithResponseConfig(cfg body.Config) ResponseOption {
	return func(o *responseOptions) { o.cfg = cfg }
}

// NewResponse builds a Response around v. Status defaults to 200,
// StatusText to "OK" — it is never synthesized from the code, the
// caller must always supply it if it wants something else.
func NewResponse(v body.Value, opts ...ResponseOption) *Response {
	o := responseOptions{status: 200, statusText: "OK", header: make(http.Header)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Response{
		Mixin:      body.NewMixin(v, o.url, o.cfg),
		URL:        o.url,
		Status:     o.status,
		StatusText: o.statusText,
		Header:     o.header,
	}
}

// Ok reports 200 <= status < 300.
func (r *Response) Ok() bool { return r.Status >= 200 && r.Status < 300 }

// Blob shadows body.Mixin's Blob, auto-supplying the lower-cased
// Content-Type header as the Blob's type tag (spec.md §4.1) so
// callers don't have to thread it through themselves.
func (r *Response) Blob(ctx context.Context) (*body.Blob, error) {
	return r.Mixin.Blob(ctx, strings.ToLower(r.Header.Get("Content-Type")))
}

// Clone duplicates r, teeing a streamed body into two independent
// readers (spec.md §4.7).
func (r *Response) Clone() (*Response, error) {
	if r.BodyUsed() {
		return nil, ferror.New(ferror.TypeAlreadyUsed, "cannot clone a Response whose body was already used", nil)
	}
	a, b := body.Tee(r.Mixin.Peek())
	r.Mixin.Replace(a)

	return &Response{
		Mixin:      r.Mixin.CloneWith(b),
		URL:        r.URL,
		Status:     r.Status,
		StatusText: r.StatusText,
		Header:     r.Header.Clone(),
	}, nil
}

// Package model holds the Request and Response types: the immutable
// description of one HTTP exchange attempt, and the container for its
// result, both built around the shared body.Mixin.
package model

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frankli0324/go-fetch/body"
	"github.com/frankli0324/go-fetch/ferror"
	"github.com/frankli0324/go-fetch/internal/header"
)

// RedirectPolicy is one of follow/manual/error (spec.md §3).
type RedirectPolicy string

const (
	RedirectFollow RedirectPolicy = "follow"
	RedirectManual RedirectPolicy = "manual"
	RedirectError  RedirectPolicy = "error"
)

// Request is the immutable-after-construction description of a single
// HTTP exchange attempt.
type Request struct {
	*body.Mixin

	Method   string
	URL      string
	Header   http.Header
	Redirect RedirectPolicy
	Follow   int
	Counter  int
	Compress bool
	Size     int64
	Timeout  time.Duration
	Agent    any
}

// options accumulates the builder state Option functions mutate
// before NewRequest finalizes an immutable Request.
type options struct {
	method      string
	methodSet   bool
	url         string
	header      any
	headerSet   bool
	body        body.Value
	bodySet     bool
	redirect    RedirectPolicy
	redirectSet bool
	follow      int
	followSet   bool
	counter     int
	compress    bool
	compressSet bool
	size        int64
	sizeSet     bool
	timeout     time.Duration
	timeoutSet  bool
	agent       any
	agentSet    bool
}

type Option func(*options)

func WithMethod(m string) Option  { return func(o *options) { o.method, o.methodSet = m, true } }
func WithHeader(h any) Option     { return func(o *options) { o.header, o.headerSet = h, true } }
func WithBody(b body.Value) Option {
	return func(o *options) { o.body, o.bodySet = b, true }
}
func WithRedirect(r RedirectPolicy) Option {
	return func(o *options) { o.redirect, o.redirectSet = r, true }
}
func WithFollow(n int) Option     { return func(o *options) { o.follow, o.followSet = n, true } }
func WithCompress(b bool) Option  { return func(o *options) { o.compress, o.compressSet = b, true } }
func WithSize(n int64) Option     { return func(o *options) { o.size, o.sizeSet = n, true } }
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout, o.timeoutSet = d, true }
}
func WithAgent(a any) Option { return func(o *options) { o.agent, o.agentSet = a, true } }

// NewRequest accepts a URL-like value (string, *url.URL) or another
// *Request, then applies the supplied Options. Wrapping a Request
// inherits URL/method/headers/follow/counter/compress/body; the inner
// body's *body.Mixin is transferred by reference, so bodyUsed
// propagates between the two (spec.md §3 Invariants).
func NewRequest(target any, opts ...Option) (*Request, error) {
	base := options{
		method:   "GET",
		redirect: RedirectFollow,
		follow:   20,
		compress: true,
	}
	var innerMixin *body.Mixin

	switch t := target.(type) {
	case string:
		base.url = t
	case *url.URL:
		base.url = t.String()
	case *Request:
		base.url = t.URL
		base.method = t.Method
		base.header = t.Header
		base.headerSet = true
		base.redirect = t.Redirect
		base.follow = t.Follow
		base.counter = t.Counter
		base.compress = t.Compress
		base.size = t.Size
		base.timeout = t.Timeout
		base.agent = t.Agent
		innerMixin = t.Mixin
	default:
		return nil, ferror.NewArgument("Only absolute URLs are supported", nil)
	}

	for _, opt := range opts {
		opt(&base)
	}

	method := strings.ToUpper(base.method)

	var h http.Header
	if base.headerSet {
		built, err := header.From(base.header)
		if err != nil {
			return nil, err
		}
		h = built
	} else {
		h = make(http.Header)
	}

	var bodyVal body.Value
	var mixin *body.Mixin
	switch {
	case base.bodySet:
		bodyVal = base.body
		mixin = body.NewMixin(base.body, base.url, body.Config{Size: base.size, Timeout: base.timeout})
	case innerMixin != nil:
		bodyVal = innerMixin.Peek()
		mixin = innerMixin
	default:
		bodyVal = body.Null()
		mixin = body.NewMixin(body.Null(), base.url, body.Config{Size: base.size, Timeout: base.timeout})
	}
	if (method == "GET" || method == "HEAD") && !bodyVal.IsNull() {
		return nil, ferror.NewArgument("Request with GET/HEAD method cannot have body", nil)
	}

	return &Request{
		Mixin:    mixin,
		Method:   method,
		URL:      base.url,
		Header:   h,
		Redirect: base.redirect,
		Follow:   base.follow,
		Counter:  base.counter,
		Compress: base.compress,
		Size:     base.size,
		Timeout:  base.timeout,
		Agent:    base.agent,
	}, nil
}

// Clone duplicates r. A streamed body is teed into two independent
// readers; a replayable body is shared by reference (spec.md §4.7).
func (r *Request) Clone() (*Request, error) {
	if r.BodyUsed() {
		return nil, ferror.New(ferror.TypeAlreadyUsed, "cannot clone a Request whose body was already used", nil)
	}
	a, b := body.Tee(r.Mixin.Peek())
	r.Mixin.Replace(a)

	return &Request{
		Mixin:    r.Mixin.CloneWith(b),
		Method:   r.Method,
		URL:      r.URL,
		Header:   r.Header.Clone(),
		Redirect: r.Redirect,
		Follow:   r.Follow,
		Counter:  r.Counter,
		Compress: r.Compress,
		Size:     r.Size,
		Timeout:  r.Timeout,
		Agent:    r.Agent,
	}, nil
}

// Blob shadows body.Mixin's Blob, auto-supplying the lower-cased
// Content-Type header as the Blob's type tag (spec.md §4.1).
func (r *Request) Blob(ctx context.Context) (*body.Blob, error) {
	return r.Mixin.Blob(ctx, strings.ToLower(r.Header.Get("Content-Type")))
}

// NextHop builds the Request for the next redirect hop: same options,
// new URL/method/body, incremented counter.
func (r *Request) NextHop(nextURL, nextMethod string, dropBody bool, counter int) *Request {
	h := r.Header.Clone()
	v := r.Mixin.Peek()
	if dropBody {
		v = body.Null()
		header.StripBodyHeaders(h)
	}
	return &Request{
		Mixin:    body.NewMixin(v, nextURL, body.Config{Size: r.Size, Timeout: r.Timeout}),
		Method:   nextMethod,
		URL:      nextURL,
		Header:   h,
		Redirect: r.Redirect,
		Follow:   r.Follow,
		Counter:  counter,
		Compress: r.Compress,
		Size:     r.Size,
		Timeout:  r.Timeout,
		Agent:    r.Agent,
	}
}

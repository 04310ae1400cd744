// Package fetch is a WHATWG-Fetch-compatible HTTP client core: a
// single Fetch entry point that takes a URL-like value and options
// and returns a Response whose body is a lazy byte stream. Aliases
// the internal model types onto the package surface the way the
// teacher's root http.go re-exports internal.Client/model.Request.
package fetch

import (
	"context"
	"net/http"

	"github.com/frankli0324/go-fetch/body"
	"github.com/frankli0324/go-fetch/ferror"
	"github.com/frankli0324/go-fetch/internal/driver"
	"github.com/frankli0324/go-fetch/internal/model"
	"github.com/frankli0324/go-fetch/internal/stack"
)

type (
	Header          = http.Header
	Request         = model.Request
	Response        = model.Response
	PreparedRequest = model.PreparedRequest
	Option          = model.Option
	RedirectPolicy  = model.RedirectPolicy

	FetchError    = ferror.Error
	ArgumentError = ferror.ArgumentError
	ErrorType     = ferror.Type

	Blob = body.Blob
	Form = body.Form
)

const (
	RedirectFollow = model.RedirectFollow
	RedirectManual = model.RedirectManual
	RedirectError  = model.RedirectError
)

var (
	WithMethod   = model.WithMethod
	WithHeader   = model.WithHeader
	WithBody     = model.WithBody
	WithRedirect = model.WithRedirect
	WithFollow   = model.WithFollow
	WithCompress = model.WithCompress
	WithSize     = model.WithSize
	WithTimeout  = model.WithTimeout
	WithAgent    = model.WithAgent

	BodyNull   = body.Null
	BodyText   = body.Text
	BodyBytes  = body.Bytes
	BodyBlob   = body.FromBlob
	BodyStream = body.Stream
	BodyForm   = body.FromForm
)

// Client owns a connection pool and the redirect driver wired to it —
// the package-level Fetch dispatches through a default instance built
// at package initialization, in place of the teacher's
// zero-value-usable internal.Client.
type Client struct {
	stack  *stack.Stack
	driver *driver.Driver
}

// NewClient builds a Client whose connection pool allows at most
// maxConn concurrent and maxIdle idle connections per destination.
func NewClient(maxConn, maxIdle uint) *Client {
	s := stack.New(maxConn, maxIdle)
	return &Client{stack: s, driver: &driver.Driver{Exchanger: s}}
}

// Fetch issues target (a URL string, *url.URL, or another *Request)
// with opts applied, running the full redirect chain, and returns the
// resulting Response.
func (c *Client) Fetch(ctx context.Context, target any, opts ...Option) (*Response, error) {
	req, err := model.NewRequest(target, opts...)
	if err != nil {
		return nil, err
	}
	return c.driver.Do(ctx, req)
}

var defaultClient = NewClient(100, 80)

// Fetch is the package-level entry point (spec.md §6), dispatching
// through a shared default Client.
func Fetch(ctx context.Context, target any, opts ...Option) (*Response, error) {
	return defaultClient.Fetch(ctx, target, opts...)
}

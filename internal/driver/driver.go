// Package driver implements the Redirect Driver (spec.md §4.4): the
// state machine that turns one Request into one or more network
// exchanges, applying method rewriting, authorization stripping, and
// a request-level dispatch-through-headers timeout across hops.
// Grounded on the teacher's internal/client.go dispatch loop,
// generalized from its middleware chain into an explicit hop loop
// since the redirect semantics here have no teacher equivalent.
package driver

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/idna"

	"github.com/frankli0324/go-fetch/body"
	"github.com/frankli0324/go-fetch/ferror"
	"github.com/frankli0324/go-fetch/internal/decoder"
	"github.com/frankli0324/go-fetch/internal/model"
	"github.com/frankli0324/go-fetch/internal/transport"
)

// Exchanger performs one HTTP exchange over the platform stack: write
// the prepared request, read back the raw, undecoded response.
type Exchanger interface {
	Exchange(ctx context.Context, pr *model.PreparedRequest) (*transport.RawResponse, error)
}

var redirectStatus = map[int]bool{301: true, 302: true, 303: true, 307: true, 308: true}

// Driver runs the redirect chain for a single Request against an
// Exchanger, producing the final Response.
type Driver struct {
	Exchanger Exchanger
}

// Do runs req, and any redirect hops it produces, to completion.
func (d *Driver) Do(ctx context.Context, req *model.Request) (*model.Response, error) {
	cur := req
	for {
		resp, next, err := d.hop(ctx, cur)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return resp, nil
		}
		cur = next
	}
}

// hop runs exactly one exchange for cur, under its own
// dispatch-through-headers timeout window. It returns either a
// terminal Response (next == nil) or the Request for the next hop.
func (d *Driver) hop(ctx context.Context, cur *model.Request) (resp *model.Response, next *model.Request, err error) {
	pr, err := cur.Prepare()
	if err != nil {
		return nil, nil, err
	}

	var timeoutCh <-chan time.Time
	if cur.Timeout > 0 {
		timer := time.NewTimer(cur.Timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	type result struct {
		raw *transport.RawResponse
		err error
	}
	done := make(chan result, 1)
	go func() {
		raw, exErr := d.Exchanger.Exchange(ctx, pr)
		done <- result{raw, exErr}
	}()

	var res result
	select {
	case res = <-done:
	case <-timeoutCh:
		return nil, nil, ferror.New(ferror.TypeRequestTimeout,
			"network timeout at "+cur.URL+" (over "+cur.Timeout.String()+")", nil)
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	if res.err != nil {
		return nil, nil, ferror.NewSystem("request to "+cur.URL+" failed", errCode(res.err), res.err)
	}
	raw := res.raw

	if !redirectStatus[raw.StatusCode] {
		v := body.Stream(decoder.Decode(raw.Body, raw.Header, raw.StatusCode, cur.Method, cur.Compress))
		return buildResponse(cur, raw, v), nil, nil
	}
	return d.redirect(cur, raw)
}

// redirect applies spec.md §4.4's policy table to a 3xx raw response.
func (d *Driver) redirect(cur *model.Request, raw *transport.RawResponse) (*model.Response, *model.Request, error) {
	switch cur.Redirect {
	case model.RedirectManual:
		v := body.Stream(raw.Body)
		return buildResponse(cur, raw, v), nil, nil
	case model.RedirectError:
		drain(raw.Body)
		return nil, nil, ferror.New(ferror.TypeNoRedirect, "redirect received while redirect: 'error' at "+cur.URL, nil)
	}

	next := cur.Counter + 1
	if next > cur.Follow {
		drain(raw.Body)
		return nil, nil, ferror.New(ferror.TypeMaxRedirect, "maximum redirect reached at: "+cur.URL, nil)
	}

	loc := raw.Header.Get("Location")
	if loc == "" {
		drain(raw.Body)
		return nil, nil, ferror.New(ferror.TypeInvalidRedirect, "missing Location header at "+cur.URL, nil)
	}
	curURL, err := url.Parse(cur.URL)
	if err != nil {
		drain(raw.Body)
		return nil, nil, ferror.New(ferror.TypeInvalidRedirect, "current URL unparseable: "+cur.URL, err)
	}
	locURL, err := url.Parse(loc)
	if err != nil {
		drain(raw.Body)
		return nil, nil, ferror.New(ferror.TypeInvalidRedirect, "invalid Location header at "+cur.URL, err)
	}
	nextURL := curURL.ResolveReference(locURL)

	nextMethod := cur.Method
	dropBody := false
	switch {
	case (raw.StatusCode == 301 || raw.StatusCode == 302) && cur.Method == "POST":
		nextMethod, dropBody = "GET", true
	case raw.StatusCode == 303 && cur.Method != "GET" && cur.Method != "HEAD":
		nextMethod, dropBody = "GET", true
	}

	drain(raw.Body)

	req := cur.NextHop(nextURL.String(), nextMethod, dropBody, next)
	if !sameHost(curURL, nextURL) {
		req.Header.Del("Authorization")
	}
	return nil, req, nil
}

func buildResponse(cur *model.Request, raw *transport.RawResponse, v body.Value) *model.Response {
	return model.NewResponse(v,
		model.WithURL(cur.URL),
		model.WithStatus(raw.StatusCode),
		model.WithStatusText(strings.TrimSpace(strings.TrimPrefix(raw.Status, strconv.Itoa(raw.StatusCode)))),
		model.WithResponseHeader(raw.Header),
		model.WithResponseConfig(body.Config{Size: cur.Size, Timeout: cur.Timeout}),
	)
}

// sameHost compares hostnames only (port-insensitive), normalized
// through IDNA so punycode and unicode forms of the same host match.
func sameHost(a, b *url.URL) bool {
	ah, aerr := idna.ToASCII(a.Hostname())
	bh, berr := idna.ToASCII(b.Hostname())
	if aerr != nil {
		ah = a.Hostname()
	}
	if berr != nil {
		bh = b.Hostname()
	}
	return strings.EqualFold(ah, bh)
}

// drain discards an unread response body so its connection returns to
// the pool instead of leaking.
func drain(r io.Reader) {
	if r == nil {
		return
	}
	io.Copy(io.Discard, r)
	if c, ok := r.(io.Closer); ok {
		c.Close()
	}
}

func errCode(err error) string {
	type coder interface{ Code() string }
	if c, ok := err.(coder); ok {
		return c.Code()
	}
	return err.Error()
}

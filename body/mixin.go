package body

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/frankli0324/go-fetch/ferror"
)

// Config carries the two response-body enforcement knobs that live on
// the owning Request (spec.md §3): size cap and read timeout. Zero
// means unlimited for both.
type Config struct {
	Size    int64
	Timeout time.Duration
}

// Mixin is the shared body-holder state embedded by both Request and
// Response: the body value itself plus the one-way disturbed flag.
// It is the Go shape of spec.md's "Body Mixin".
type Mixin struct {
	mu        sync.Mutex
	value     Value
	disturbed bool

	url string
	cfg Config
}

// NewMixin constructs a Mixin around v. url is used only to annotate
// size/timeout errors; cfg governs consume's accumulation limits.
func NewMixin(v Value, url string, cfg Config) *Mixin {
	return &Mixin{value: v, url: url, cfg: cfg}
}

// Peek returns the stored value without marking the body disturbed.
// Used by header inference and wire-writing, which must inspect the
// body without consuming it.
func (m *Mixin) Peek() Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// Replace swaps the stored value, used by Clone to install a tee leg
// in place of the original stream.
func (m *Mixin) Replace(v Value) {
	m.mu.Lock()
	m.value = v
	m.mu.Unlock()
}

// URL returns the URL the mixin annotates size/timeout errors with.
func (m *Mixin) URL() string { return m.url }

// Config returns the size/timeout enforcement knobs the mixin was
// constructed with.
func (m *Mixin) Config() Config { return m.cfg }

// CloneWith builds a fresh, non-disturbed Mixin around v that shares
// this mixin's url/cfg — used by Request/Response.Clone to hand the
// second tee leg (or a by-reference replayable value) to the copy.
func (m *Mixin) CloneWith(v Value) *Mixin {
	return NewMixin(v, m.url, m.cfg)
}

func (m *Mixin) BodyUsed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disturbed
}

// consume is the one private routine every public accessor funnels
// through (spec.md §4.1).
func (m *Mixin) consume(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	if m.disturbed {
		m.mu.Unlock()
		return nil, ferror.New(ferror.TypeAlreadyUsed, "body used already for: "+m.url, nil)
	}
	m.disturbed = true
	v := m.value
	m.mu.Unlock()

	switch v.Kind {
	case KindNull:
		return nil, nil
	case KindText:
		return []byte(v.Text), nil
	case KindBytes:
		return v.Bytes, nil
	case KindBlob:
		return v.Blob.Data, nil
	case KindStream:
		return m.drainStream(ctx, v.Stream)
	default:
		return nil, nil
	}
}

type drainResult struct {
	buf []byte
	err error
}

// drainStream accumulates chunks from r under the concurrent
// timeout/size/error race described in spec.md §4.1: whichever
// terminal event happens first wins, the timer is always disarmed,
// and a single oversized chunk is rejected before it is appended.
func (m *Mixin) drainStream(ctx context.Context, r io.Reader) ([]byte, error) {
	done := make(chan drainResult, 1)
	go func() {
		buf, err := m.accumulate(r)
		closeDrained(r, err != nil)
		done <- drainResult{buf, err}
	}()

	var timeoutCh <-chan time.Time
	if m.cfg.Timeout > 0 {
		timer := time.NewTimer(m.cfg.Timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case res := <-done:
		return res.buf, res.err
	case <-timeoutCh:
		closeDrained(r, true)
		return nil, ferror.New(ferror.TypeBodyTimeout,
			"Response timeout while trying to fetch "+m.url+" (over "+m.cfg.Timeout.String()+")", nil)
	case <-ctx.Done():
		closeDrained(r, true)
		return nil, ctx.Err()
	}
}

// closeDrained releases r. abort reports whether r is being closed
// with unread bytes still pending on it (a timeout, a cancellation,
// or accumulate stopping early on an error) rather than after a clean
// EOF. An aborted reader backed by a pooled connection must be
// hard-closed rather than handed back for reuse with stale wire bytes
// still in flight; closeDrained prefers an Abort method over Close
// for exactly that reason.
func closeDrained(r io.Reader, abort bool) {
	if abort {
		if a, ok := r.(interface{ Abort() error }); ok {
			a.Abort()
			return
		}
	}
	if c, ok := r.(io.Closer); ok {
		c.Close()
	}
}

func (m *Mixin) accumulate(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 32*1024)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if m.cfg.Size > 0 && int64(buf.Len())+int64(n) > m.cfg.Size {
				return nil, ferror.New(ferror.TypeMaxSize,
					"content size at "+m.url+" over limit", nil)
			}
			buf.Write(chunk[:n])
		}
		if err != nil {
			if err == io.EOF {
				return buf.Bytes(), nil
			}
			return nil, ferror.NewSystem("stream error while fetching "+m.url, errCode(err), err)
		}
	}
}

// errCode extracts a platform error name when available, defaulting
// to the error's own string form.
func errCode(err error) string {
	type coder interface{ Code() string }
	if c, ok := err.(coder); ok {
		return c.Code()
	}
	return err.Error()
}

// Buffer resolves to the full body bytes.
func (m *Mixin) Buffer(ctx context.Context) ([]byte, error) {
	return m.consume(ctx)
}

// ArrayBuffer resolves to an immutable byte view over the body bytes.
func (m *Mixin) ArrayBuffer(ctx context.Context) ([]byte, error) {
	b, err := m.consume(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Text resolves to the UTF-8 decoding of the body bytes. No other
// encoding is honored, even if a charset is advertised.
func (m *Mixin) Text(ctx context.Context) (string, error) {
	b, err := m.consume(ctx)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// JSON decodes the body's UTF-8 text as JSON into v.
func (m *Mixin) JSON(ctx context.Context, v any) error {
	b, err := m.consume(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return ferror.New(ferror.TypeInvalidJSON, "invalid json response body: "+err.Error(), err)
	}
	return nil
}

// Blob wraps the body bytes in a Blob tagged with the supplied
// content type (the caller passes the holder's own Content-Type
// header, lower-cased, or "").
func (m *Mixin) Blob(ctx context.Context, contentType string) (*Blob, error) {
	b, err := m.consume(ctx)
	if err != nil {
		return nil, err
	}
	return &Blob{Type: contentType, Data: b}, nil
}

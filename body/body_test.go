package body

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/frankli0324/go-fetch/ferror"
)

func TestConsumeIdempotent(t *testing.T) {
	m := NewMixin(Text("hello"), "http://x", Config{})
	if m.BodyUsed() {
		t.Fatal("should not be used yet")
	}
	got, err := m.Text(context.Background())
	if err != nil || got != "hello" {
		t.Fatalf("got %q, %v", got, err)
	}
	if !m.BodyUsed() {
		t.Fatal("should be used now")
	}
	if _, err := m.Text(context.Background()); err == nil {
		t.Fatal("expected already-used error")
	} else {
		var fe *ferror.Error
		if !errors.As(err, &fe) || fe.Type != ferror.TypeAlreadyUsed {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestConsumeStream(t *testing.T) {
	m := NewMixin(Stream(strings.NewReader("abcdef")), "http://x", Config{})
	got, err := m.Text(context.Background())
	if err != nil || got != "abcdef" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestMaxSizeBoundary(t *testing.T) {
	m := NewMixin(Stream(strings.NewReader("12345")), "http://x", Config{Size: 5})
	if _, err := m.Text(context.Background()); err != nil {
		t.Fatalf("exact size should succeed: %v", err)
	}

	m2 := NewMixin(Stream(strings.NewReader("123456")), "http://x", Config{Size: 5})
	_, err := m2.Text(context.Background())
	var fe *ferror.Error
	if !errors.As(err, &fe) || fe.Type != ferror.TypeMaxSize {
		t.Fatalf("expected max-size, got %v", err)
	}
}

type slowReader struct{ delay time.Duration }

func (s slowReader) Read(p []byte) (int, error) {
	time.Sleep(s.delay)
	return 0, io.EOF
}

func TestBodyTimeout(t *testing.T) {
	m := NewMixin(Stream(slowReader{50 * time.Millisecond}), "http://x", Config{Timeout: 5 * time.Millisecond})
	_, err := m.Text(context.Background())
	var fe *ferror.Error
	if !errors.As(err, &fe) || fe.Type != ferror.TypeBodyTimeout {
		t.Fatalf("expected body-timeout, got %v", err)
	}
}

// abortableReader tracks whether it was torn down via Abort (an early
// stop with unread bytes pending) or Close (a clean EOF).
type abortableReader struct {
	io.Reader
	aborted, closed bool
}

func (a *abortableReader) Close() error { a.closed = true; return nil }
func (a *abortableReader) Abort() error { a.aborted = true; return nil }

func TestMaxSizeAbortPrefersAbortOverClose(t *testing.T) {
	r := &abortableReader{Reader: strings.NewReader("123456")}
	m := NewMixin(Stream(r), "http://x", Config{Size: 5})
	if _, err := m.Text(context.Background()); err == nil {
		t.Fatal("expected max-size error")
	}
	if !r.aborted {
		t.Fatal("expected an oversized stream to be Abort()-ed, not plain Close()-ed")
	}
	if r.closed {
		t.Fatal("did not expect Close to be called once Abort succeeded")
	}
}

func TestCleanReadPrefersCloseOverAbort(t *testing.T) {
	r := &abortableReader{Reader: strings.NewReader("hello")}
	m := NewMixin(Stream(r), "http://x", Config{})
	if _, err := m.Text(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r.aborted {
		t.Fatal("did not expect a fully-drained stream to be Abort()-ed")
	}
	if !r.closed {
		t.Fatal("expected a fully-drained stream to be Close()-d")
	}
}

func TestJSON(t *testing.T) {
	m := NewMixin(Text(`{"a":1}`), "http://x", Config{})
	var v struct{ A int }
	if err := m.JSON(context.Background(), &v); err != nil || v.A != 1 {
		t.Fatalf("got %+v, %v", v, err)
	}
}

func TestInvalidJSON(t *testing.T) {
	m := NewMixin(Text(`not json`), "http://x", Config{})
	var v any
	err := m.JSON(context.Background(), &v)
	var fe *ferror.Error
	if !errors.As(err, &fe) || fe.Type != ferror.TypeInvalidJSON {
		t.Fatalf("expected invalid-json, got %v", err)
	}
}

func TestBlobTaggedWithContentType(t *testing.T) {
	m := NewMixin(Bytes([]byte("xy")), "http://x", Config{})
	b, err := m.Blob(context.Background(), "image/png")
	if err != nil || b.Type != "image/png" || string(b.Data) != "xy" {
		t.Fatalf("got %+v, %v", b, err)
	}
}

func TestExtractContentType(t *testing.T) {
	if got := ExtractContentType(Text("x")); got != "text/plain;charset=UTF-8" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractContentType(FromBlob(&Blob{Type: "image/png"})); got != "image/png" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractContentType(Bytes([]byte("x"))); got != "" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractContentType(Stream(strings.NewReader("x"))); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestGetTotalBytes(t *testing.T) {
	if n, ok := GetTotalBytes(Text("abc")); !ok || n != 3 {
		t.Fatalf("got %d %v", n, ok)
	}
	if _, ok := GetTotalBytes(Stream(strings.NewReader("abc"))); ok {
		t.Fatal("stream length should be unknown")
	}
	if n, ok := GetTotalBytes(Null()); !ok || n != 0 {
		t.Fatalf("got %d %v", n, ok)
	}
}

func TestTeeYieldsIdenticalBytes(t *testing.T) {
	v := Stream(strings.NewReader("the quick brown fox"))
	a, b := Tee(v)

	var gotA, gotB string
	done := make(chan struct{})
	go func() {
		buf, _ := io.ReadAll(a.Stream)
		gotA = string(buf)
		close(done)
	}()
	buf, _ := io.ReadAll(b.Stream)
	gotB = string(buf)
	<-done

	if gotA != "the quick brown fox" || gotB != "the quick brown fox" {
		t.Fatalf("tee mismatch: %q vs %q", gotA, gotB)
	}
}

func TestNonStreamTeeByReference(t *testing.T) {
	v := Bytes([]byte("abc"))
	a, b := Tee(v)
	if a.Kind != KindBytes || b.Kind != KindBytes {
		t.Fatal("replayable bodies should be returned unchanged")
	}
}

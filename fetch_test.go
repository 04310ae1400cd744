package fetch_test

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	fetch "github.com/frankli0324/go-fetch"
	"github.com/frankli0324/go-fetch/internal/netpool"
)

func TestFetchGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Echo-Method", r.Method)
		w.WriteHeader(200)
		w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	resp, err := fetch.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Ok() {
		t.Fatalf("expected ok status, got %d", resp.Status)
	}
	text, err := resp.Text(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello world" {
		t.Fatalf("unexpected body: %q", text)
	}
}

func TestFetchPostBody(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	_, err := fetch.Fetch(context.Background(), srv.URL, fetch.WithMethod("POST"), fetch.WithBody(fetch.BodyText("a=1")))
	if err != nil {
		t.Fatal(err)
	}
	if gotBody != "a=1" {
		t.Fatalf("server saw body %q, want a=1", gotBody)
	}
}

func TestFetchRedirect301RewritesPostToGet(t *testing.T) {
	var gotMethod string
	var gotBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/inspect", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(200)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := fetch.Fetch(context.Background(), srv.URL+"/redirect",
		fetch.WithMethod("POST"), fetch.WithBody(fetch.BodyText("a=1")))
	if err != nil {
		t.Fatal(err)
	}
	if gotMethod != "GET" {
		t.Fatalf("expected inspector to see GET, got %s", gotMethod)
	}
	if len(gotBody) != 0 {
		t.Fatalf("expected inspector to see empty body, got %q", gotBody)
	}
	if resp.URL != srv.URL+"/inspect" {
		t.Fatalf("expected final url %s, got %s", srv.URL+"/inspect", resp.URL)
	}
}

func TestFetchRedirect307PreservesMethodAndBody(t *testing.T) {
	var gotMethod string
	var gotBody []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/inspect", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(200)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := fetch.Fetch(context.Background(), srv.URL+"/redirect",
		fetch.WithMethod("POST"), fetch.WithBody(fetch.BodyText("a=1")))
	if err != nil {
		t.Fatal(err)
	}
	if gotMethod != "POST" {
		t.Fatalf("expected inspector to see POST, got %s", gotMethod)
	}
	if string(gotBody) != "a=1" {
		t.Fatalf("expected inspector to see body a=1, got %q", gotBody)
	}
}

func TestFetchRedirectFollowZeroFailsMaxRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/inspect", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := fetch.Fetch(context.Background(), srv.URL+"/redirect", fetch.WithFollow(0))
	ferr, ok := err.(*fetch.FetchError)
	if !ok {
		t.Fatalf("expected a FetchError, got %T: %v", err, err)
	}
	if ferr.Type != "max-redirect" {
		t.Fatalf("expected max-redirect, got %s", ferr.Type)
	}
}

func TestFetchManualRedirectReturnsAsIs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/inspect", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := fetch.Fetch(context.Background(), srv.URL+"/redirect", fetch.WithRedirect(fetch.RedirectManual))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != 302 {
		t.Fatalf("expected manual redirect response to pass through, got %d", resp.Status)
	}
}

func TestFetchStripsAuthorizationCrossHost(t *testing.T) {
	var gotAuth string
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(200)
	}))
	defer other.Close()
	// Both servers listen on 127.0.0.1; hosts are compared by hostname
	// only, so the redirect names other as "localhost" to cross hosts.
	otherURL := strings.Replace(other.URL, "127.0.0.1", "localhost", 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, otherURL+"/", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := fetch.Fetch(context.Background(), srv.URL+"/redirect", fetch.WithHeader(fetch.Header{"Authorization": {"abc"}}))
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "" {
		t.Fatalf("expected Authorization stripped across hosts, got %q", gotAuth)
	}
}

func TestFetchDecodesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(200)
		gw := gzip.NewWriter(w)
		gw.Write([]byte("hello world"))
		gw.Close()
	}))
	defer srv.Close()

	resp, err := fetch.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	text, err := resp.Text(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello world" {
		t.Fatalf("unexpected body: %q", text)
	}
}

func TestFetchWithCustomAgentPool(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	agent := netpool.NewGroup(4, 4)
	resp, err := fetch.Fetch(context.Background(), srv.URL, fetch.WithAgent(agent))
	if err != nil {
		t.Fatal(err)
	}
	text, err := resp.Text(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if text != "ok" {
		t.Fatalf("unexpected body: %q", text)
	}
}

func TestFetchMaxSizeRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("123456"))
	}))
	defer srv.Close()

	resp, err := fetch.Fetch(context.Background(), srv.URL, fetch.WithSize(5))
	if err != nil {
		t.Fatal(err)
	}
	_, err = resp.Text(context.Background())
	ferr, ok := err.(*fetch.FetchError)
	if !ok {
		t.Fatalf("expected a FetchError, got %T: %v", err, err)
	}
	if ferr.Type != "max-size" {
		t.Fatalf("expected max-size, got %s", ferr.Type)
	}
}

package scraper

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samvad-hq/zshort-go/pkg/httpclient"
)

// stubHTTPResponse implements httpclient.Response.
type stubHTTPResponse struct {
	body       []byte
	statusCode int
}

func (s stubHTTPResponse) Body() []byte    { return s.body }
func (s stubHTTPResponse) StatusCode() int { return s.statusCode }
func (s stubHTTPResponse) Status() string  { return http.StatusText(s.statusCode) }

// stubHTTPClient returns a single response.
type stubHTTPClient struct {
	resp httpclient.Response
	err  error
}

func (s stubHTTPClient) Get(_ context.Context, _ string, _ map[string]string) (httpclient.Response, error) {
	return s.resp, s.err
}

func (s stubHTTPClient) Do(ctx context.Context, req httpclient.Request) (httpclient.Response, error) {
	return s.Get(ctx, req.URL, req.Headers)
}

func TestParseTitlePrefersOGTags(t *testing.T) {
	html := []byte(`
<html>
  <head>
    <title>Fallback</title>
    <meta property="og:title" content=" OG Title ">
  </head>
</html>`)

	title, err := parseTitle(html)
	if err != nil {
		t.Fatalf("parseTitle: %v", err)
	}
	if title != "OG Title" {
		t.Fatalf("unexpected title %q", title)
	}
}

func TestParseTitleFallsBackToTitleTag(t *testing.T) {
	title, err := parseTitle([]byte(`<html><head><title> Plain </title></head></html>`))
	if err != nil {
		t.Fatalf("parseTitle: %v", err)
	}
	if title != "Plain" {
		t.Fatalf("unexpected title %q", title)
	}
}

func TestTitleLimitsBody(t *testing.T) {
	body := bytes.Repeat([]byte("a"), maxHTMLBodyBytes+10)
	s := New(stubHTTPClient{resp: stubHTTPResponse{body: body, statusCode: 200}})

	title, err := s.Title(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Title: %v", err)
	}
	if title != "" {
		t.Fatalf("expected empty title because body had no metadata, got %q", title)
	}
}

func TestTitleErrors(t *testing.T) {
	s := New(stubHTTPClient{resp: stubHTTPResponse{body: []byte("gone"), statusCode: 404}})
	if _, err := s.Title(context.Background(), "https://example.com"); err == nil {
		t.Fatalf("expected error on 404")
	}

	s = New(stubHTTPClient{err: errors.New("dial failed")})
	if _, err := s.Title(context.Background(), "https://example.com"); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestTitleAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing user agent")
		}
		_, _ = w.Write([]byte(`<html><head><meta property="og:title" content="Served"></head></html>`))
	}))
	defer srv.Close()

	title, err := New(nil).Title(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Title: %v", err)
	}
	if title != "Served" {
		t.Fatalf("unexpected title %q", title)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", " ", "foo", "bar"); got != "foo" {
		t.Fatalf("firstNonEmpty returned %q", got)
	}
}

package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRestyClientDoSendsBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Fatalf("expected PATCH, got %s", r.Method)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Fatalf("missing header, got %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"a":1}` {
			t.Fatalf("unexpected body %q", body)
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"short":{}}`))
	}))
	defer srv.Close()

	c := NewRestyClient(0)
	defer c.Close()

	resp, err := c.Do(context.Background(), Request{
		Method:  http.MethodPatch,
		URL:     srv.URL,
		Headers: map[string]string{"X-Test": "1"},
		Body:    []byte(`{"a":1}`),
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode() != http.StatusConflict {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if resp.Status() != "409 Conflict" {
		t.Fatalf("status line = %q", resp.Status())
	}
	if string(resp.Body()) != `{"short":{}}` {
		t.Fatalf("body = %q", resp.Body())
	}
}

func TestRestyClientGetReturnsErrorStatusWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(0).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode())
	}
}

func TestRestyClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := NewRestyClient(0).Get(context.Background(), url, nil); err == nil {
		t.Fatalf("expected error for closed server")
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samvad-hq/zshort-go/pkg/zshort"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/short/ex":
			_, _ = w.Write([]byte(`{"id":"1","long_url":"https://example.com","slug":"ex","title":null,
				"visits":2,"created_at":"2024-01-02T03:04:05","owner":"alice"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/short/":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"not authenticated"}`))
				return
			}
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			body, _ := json.Marshal(map[string]any{
				"id": "2", "long_url": req["url"], "slug": req["slug"], "title": req["title"],
				"visits": 0, "created_at": "2024-01-02T03:04:05", "expires_at": req["expires_at"], "owner": "alice",
			})
			_, _ = w.Write(body)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func baseArgs(host string) []string {
	return []string{"--host", host, "--token-store", "none", "--log-level", "error"}
}

func TestExecuteGet(t *testing.T) {
	srv := newAPI(t)
	var out bytes.Buffer
	args := append([]string{"get", "ex"}, baseArgs(srv.URL)...)
	if err := execute(context.Background(), args, &out); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var got zshort.ShortURL
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v (%s)", err, out.String())
	}
	if got.URL != srv.URL+"/ex" || got.Visits != 2 {
		t.Fatalf("unexpected link %#v", got)
	}
}

func TestExecuteCreateWithFlags(t *testing.T) {
	srv := newAPI(t)
	var out bytes.Buffer
	args := append([]string{"create", "https://example.com/x", "--slug", "x", "--title", "X",
		"--expires-at", "2030-01-01T00:00:00Z", "--token", "tok", "-o", "text"}, baseArgs(srv.URL)...)
	if err := execute(context.Background(), args, &out); err != nil {
		t.Fatalf("execute: %v", err)
	}
	text := out.String()
	for _, want := range []string{srv.URL + "/x", "title", "X", "expires_at", "2030-01-01T00:00:00Z"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
}

func TestExecuteCreateWithoutToken(t *testing.T) {
	srv := newAPI(t)
	args := append([]string{"create", "https://example.com"}, baseArgs(srv.URL)...)
	if err := execute(context.Background(), args, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected not authenticated error")
	}
}

func TestExecuteNotFound(t *testing.T) {
	srv := newAPI(t)
	args := append([]string{"get", "missing"}, baseArgs(srv.URL)...)
	err := execute(context.Background(), args, &bytes.Buffer{})
	if !zshort.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "404|Not Found: not found") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestExecuteUsageErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"shorten"}},
		{name: "missing argument", args: []string{"get"}},
		{name: "extra argument", args: []string{"delete", "a", "b"}},
		{name: "bad flag", args: []string{"get", "ex", "--nope"}},
		{name: "bad timestamp", args: []string{"create", "https://example.com", "--expires-at", "soon", "--token-store", "none"}},
		{name: "bad output", args: []string{"get", "ex", "-o", "xml"}},
		{name: "login without password", args: []string{"login", "alice", "--token-store", "none"}},
		{name: "register without invite", args: []string{"register", "alice", "-p", "pw", "--token-store", "none"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(passwordEnv, "")
			if err := execute(context.Background(), tc.args, &bytes.Buffer{}); err == nil {
				t.Fatalf("expected error for %v", tc.args)
			}
		})
	}
}

func TestExecuteHelp(t *testing.T) {
	var out bytes.Buffer
	if err := execute(context.Background(), []string{"help"}, &out); err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, c := range commands {
		if !strings.Contains(out.String(), c.name) {
			t.Fatalf("usage missing %q", c.name)
		}
	}
}

package app

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/zshort-go/internal/config"
	"github.com/samvad-hq/zshort-go/pkg/zshort"
)

func sampleShort() *zshort.ShortURL {
	title := "Example"
	return &zshort.ShortURL{
		ID:        "1",
		LongURL:   "https://example.com",
		Slug:      "ex",
		Title:     &title,
		Visits:    7,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Owner:     "alice",
		URL:       "https://zs.zevs.me/ex",
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, config.OutputText, sampleShort()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"url", "https://zs.zevs.me/ex", "visits", "7", "created_at  2024-01-02T03:04:05Z"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "expires_at") {
		t.Fatalf("absent expiry should not be printed:\n%s", out)
	}
}

func TestRenderTextList(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, config.OutputText, []*zshort.ShortURL{sampleShort()}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "https://zs.zevs.me/ex  https://example.com" {
		t.Fatalf("unexpected list output %q", got)
	}
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, config.OutputYAML, sampleShort()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "slug: ex") || !strings.Contains(out, "expires_at: null") {
		t.Fatalf("unexpected yaml output:\n%s", out)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	if err := Render(&bytes.Buffer{}, "xml", sampleShort()); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "links.yaml", `
links:
  - url: " https://example.com/a "
    slug: a
    title: Example A
    expires_at: "2030-01-01T00:00:00Z"
  - url: https://example.com/b
`)

	links, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	if links[0].URL != "https://example.com/a" {
		t.Fatalf("expected trimmed url, got %q", links[0].URL)
	}

	opts, err := links[0].CreateOptions()
	if err != nil {
		t.Fatalf("CreateOptions: %v", err)
	}
	if opts.Slug != "a" || opts.Title != "Example A" {
		t.Fatalf("unexpected options %#v", opts)
	}
	if !opts.ExpiresAt.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry %v", opts.ExpiresAt)
	}

	opts, err = links[1].CreateOptions()
	if err != nil {
		t.Fatalf("CreateOptions: %v", err)
	}
	if !opts.ExpiresAt.IsZero() || opts.Slug != "" {
		t.Fatalf("expected empty optionals, got %#v", opts)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "links.json", `{"links":[{"url":"https://example.com","slug":"ex"}]}`)

	links, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(links) != 1 || links[0].Slug != "ex" {
		t.Fatalf("unexpected links %#v", links)
	}
}

func TestLoadRejectsBadManifests(t *testing.T) {
	cases := map[string]string{
		"empty":          "links: []\n",
		"missing url":    "links:\n  - slug: a\n",
		"ftp url":        "links:\n  - url: ftp://example.com\n",
		"duplicate slug": "links:\n  - url: https://a.example\n    slug: x\n  - url: https://b.example\n    slug: x\n",
		"bad expiry":     "links:\n  - url: https://a.example\n    expires_at: tomorrow\n",
		"nested slug":    "links:\n  - url: https://a.example\n    slug: a/b\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, "links.yaml", content)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := Load(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/zshort-go/pkg/zshort"
	"gopkg.in/yaml.v3"
)

// Package manifest loads bulk link definitions (YAML/JSON) for batch creation.

// Link is one entry of a manifest file.
type Link struct {
	URL       string `json:"url" yaml:"url"`
	Slug      string `json:"slug" yaml:"slug"`
	Title     string `json:"title" yaml:"title"`
	ExpiresAt string `json:"expires_at" yaml:"expires_at"`
}

type file struct {
	Links []Link `json:"links" yaml:"links"`
}

// CreateOptions converts the optional fields of l for zshort.Client.Create.
func (l Link) CreateOptions() (zshort.CreateOptions, error) {
	opts := zshort.CreateOptions{Slug: l.Slug, Title: l.Title}
	if l.ExpiresAt != "" {
		t, err := zshort.ParseTimestamp(l.ExpiresAt)
		if err != nil {
			return zshort.CreateOptions{}, fmt.Errorf("expires_at: %w", err)
		}
		opts.ExpiresAt = t
	}
	return opts, nil
}

// Load reads and validates a manifest file.
func Load(path string) ([]Link, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("manifest file path is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest file: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read manifest file: %w", err)
	}

	parsed, err := parse(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Links) == 0 {
		return nil, errors.New("manifest file contains no links entries")
	}

	slugs := make(map[string]struct{}, len(parsed.Links))
	for i := range parsed.Links {
		l := sanitizeLink(parsed.Links[i])
		if err := validateLink(l); err != nil {
			return nil, fmt.Errorf("links[%d]: %w", i, err)
		}
		if l.Slug != "" {
			if _, exists := slugs[l.Slug]; exists {
				return nil, fmt.Errorf("duplicate slug %q", l.Slug)
			}
			slugs[l.Slug] = struct{}{}
		}
		parsed.Links[i] = l
	}

	return parsed.Links, nil
}

type unmarshalFn func([]byte, any) error

func parse(data []byte, ext string) (file, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	known := false
	for _, d := range decoders {
		if ext == d.ext {
			known = true
		}
	}

	for _, d := range decoders {
		if known && ext != d.ext {
			continue
		}
		var f file
		if err := d.fn(data, &f); err == nil {
			return f, nil
		}
	}

	return file{}, errors.New("manifest file format not recognized (expected YAML or JSON)")
}

func sanitizeLink(l Link) Link {
	l.URL = strings.TrimSpace(l.URL)
	l.Slug = strings.TrimSpace(l.Slug)
	l.Title = strings.TrimSpace(l.Title)
	l.ExpiresAt = strings.TrimSpace(l.ExpiresAt)
	return l
}

func validateLink(l Link) error {
	if l.URL == "" {
		return errors.New("url is required")
	}
	if !strings.HasPrefix(l.URL, "http://") && !strings.HasPrefix(l.URL, "https://") {
		return fmt.Errorf("url %q must be http or https", l.URL)
	}
	if strings.Contains(l.Slug, "/") {
		return fmt.Errorf("slug %q must not contain '/'", l.Slug)
	}
	if l.ExpiresAt != "" {
		if _, err := zshort.ParseTimestamp(l.ExpiresAt); err != nil {
			return fmt.Errorf("expires_at: %w", err)
		}
	}
	return nil
}

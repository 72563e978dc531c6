package zshort

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ShortURL is a short link as reported by the service. URL is never taken from
// the response body; the client fills it in from its host and the slug.
type ShortURL struct {
	ID        string     `json:"id" yaml:"id"`
	LongURL   string     `json:"long_url" yaml:"long_url"`
	Slug      string     `json:"slug" yaml:"slug"`
	Title     *string    `json:"title" yaml:"title"`
	Visits    int64      `json:"visits" yaml:"visits"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	EditedAt  *time.Time `json:"edited_at" yaml:"edited_at"`
	ExpiresAt *time.Time `json:"expires_at" yaml:"expires_at"`
	Owner     string     `json:"owner" yaml:"owner"`
	URL       string     `json:"url" yaml:"url"`
}

// ParseShortURL decodes a ShortURL from a JSON object, field by field. A
// missing or mistyped required field yields a *ValidationError naming it;
// optional fields that are absent or null stay nil.
func ParseShortURL(fields map[string]json.RawMessage) (*ShortURL, error) {
	var (
		s   ShortURL
		err error
	)

	if s.ID, err = requiredString(fields, "id"); err != nil {
		return nil, err
	}
	if s.LongURL, err = requiredString(fields, "long_url"); err != nil {
		return nil, err
	}
	if s.Slug, err = requiredString(fields, "slug"); err != nil {
		return nil, err
	}
	if s.Title, err = optionalString(fields, "title"); err != nil {
		return nil, err
	}
	if s.Visits, err = requiredInt(fields, "visits"); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = requiredTime(fields, "created_at"); err != nil {
		return nil, err
	}
	if s.EditedAt, err = optionalTime(fields, "edited_at"); err != nil {
		return nil, err
	}
	if s.ExpiresAt, err = optionalTime(fields, "expires_at"); err != nil {
		return nil, err
	}
	if s.Owner, err = requiredString(fields, "owner"); err != nil {
		return nil, err
	}
	if s.URL, err = requiredString(fields, "url"); err != nil {
		return nil, err
	}

	return &s, nil
}

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses the service's ISO-8601 timestamps into a zone-aware time.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func requiredString(fields map[string]json.RawMessage, key string) (string, error) {
	v, err := optionalString(fields, key)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", missingField(key)
	}
	return *v, nil
}

func optionalString(fields map[string]json.RawMessage, key string) (*string, error) {
	raw, ok := fields[key]
	if !ok || isAbsent(raw) {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &ValidationError{Field: key, Reason: "expected a string"}
	}
	return &s, nil
}

func requiredInt(fields map[string]json.RawMessage, key string) (int64, error) {
	raw, ok := fields[key]
	if !ok || isAbsent(raw) {
		return 0, missingField(key)
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, &ValidationError{Field: key, Reason: "expected an integer"}
	}
	return n, nil
}

func requiredTime(fields map[string]json.RawMessage, key string) (time.Time, error) {
	t, err := optionalTime(fields, key)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, missingField(key)
	}
	return *t, nil
}

func optionalTime(fields map[string]json.RawMessage, key string) (*time.Time, error) {
	s, err := optionalString(fields, key)
	if err != nil {
		return nil, &ValidationError{Field: key, Reason: "expected a timestamp string"}
	}
	if s == nil {
		return nil, nil
	}
	t, err := ParseTimestamp(*s)
	if err != nil {
		return nil, &ValidationError{Field: key, Reason: err.Error()}
	}
	return &t, nil
}

func missingField(key string) error {
	return &ValidationError{Field: key, Reason: "field required"}
}

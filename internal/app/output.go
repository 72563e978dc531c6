package app

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/samvad-hq/zshort-go/internal/config"
	"github.com/samvad-hq/zshort-go/pkg/zshort"
	"gopkg.in/yaml.v3"
)

type authResult struct {
	Host          string `json:"host" yaml:"host"`
	Authenticated bool   `json:"authenticated" yaml:"authenticated"`
}

type deleteResult struct {
	Slug    string `json:"slug" yaml:"slug"`
	Deleted bool   `json:"deleted" yaml:"deleted"`
}

type qrResult struct {
	URL  string `json:"url" yaml:"url"`
	File string `json:"file" yaml:"file"`
}

// Render writes v to w in the requested output format.
func Render(w io.Writer, format string, v any) error {
	switch format {
	case config.OutputJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case config.OutputText:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		if err := renderText(tw, v); err != nil {
			return err
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func renderText(w io.Writer, v any) error {
	var err error
	switch val := v.(type) {
	case *zshort.ShortURL:
		err = writeRows(w, shortRows(val))
	case []*zshort.ShortURL:
		rows := make([][2]string, 0, len(val))
		for _, s := range val {
			rows = append(rows, [2]string{s.URL, s.LongURL})
		}
		err = writeRows(w, rows)
	case authResult:
		state := "logged out"
		if val.Authenticated {
			state = "logged in"
		}
		err = writeRows(w, [][2]string{{val.Host, state}})
	case deleteResult:
		err = writeRows(w, [][2]string{{"deleted", val.Slug}})
	case qrResult:
		err = writeRows(w, [][2]string{{val.URL, val.File}})
	default:
		_, err = fmt.Fprintf(w, "%v\n", v)
	}
	return err
}

func shortRows(s *zshort.ShortURL) [][2]string {
	rows := [][2]string{
		{"url", s.URL},
		{"long_url", s.LongURL},
		{"slug", s.Slug},
		{"title", deref(s.Title)},
		{"visits", fmt.Sprint(s.Visits)},
		{"created_at", s.CreatedAt.Format(time.RFC3339)},
	}
	if s.EditedAt != nil {
		rows = append(rows, [2]string{"edited_at", s.EditedAt.Format(time.RFC3339)})
	}
	if s.ExpiresAt != nil {
		rows = append(rows, [2]string{"expires_at", s.ExpiresAt.Format(time.RFC3339)})
	}
	return rows
}

func writeRows(w io.Writer, rows [][2]string) error {
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", r[0], r[1]); err != nil {
			return err
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

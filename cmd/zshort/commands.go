package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/samvad-hq/zshort-go/internal/app"
	"github.com/samvad-hq/zshort-go/internal/config"
	"github.com/samvad-hq/zshort-go/internal/logger"
	"github.com/samvad-hq/zshort-go/internal/qr"
	"github.com/samvad-hq/zshort-go/pkg/zshort"
)

const passwordEnv = "ZSHORT_PASSWORD"

type command struct {
	name  string
	usage string
	about string
	nargs int
	flags func(fs *pflag.FlagSet)
	run   func(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string) error
}

var commands = []command{
	{
		name:  "login",
		usage: "login <username> [--password p]",
		about: "obtain and store an access token",
		nargs: 1,
		flags: func(fs *pflag.FlagSet) {
			fs.StringP("password", "p", "", "account password (or $"+passwordEnv+")")
		},
		run: func(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string) error {
			password, err := passwordFrom(fs)
			if err != nil {
				return err
			}
			return a.Login(ctx, args[0], password)
		},
	},
	{
		name:  "register",
		usage: "register <username> --invite token [--password p]",
		about: "create an account from an invite and store its token",
		nargs: 1,
		flags: func(fs *pflag.FlagSet) {
			fs.StringP("password", "p", "", "account password (or $"+passwordEnv+")")
			fs.String("invite", "", "invite token issued by an existing user")
		},
		run: func(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string) error {
			password, err := passwordFrom(fs)
			if err != nil {
				return err
			}
			invite, _ := fs.GetString("invite")
			if strings.TrimSpace(invite) == "" {
				return fmt.Errorf("--invite is required")
			}
			return a.Register(ctx, args[0], password, invite)
		},
	},
	{
		name:  "logout",
		usage: "logout",
		about: "forget the stored token for the host",
		run: func(_ context.Context, a *app.App, _ *pflag.FlagSet, _ []string) error {
			return a.Logout()
		},
	},
	{
		name:  "get",
		usage: "get <slug>",
		about: "show a short link",
		nargs: 1,
		run: func(ctx context.Context, a *app.App, _ *pflag.FlagSet, args []string) error {
			return a.Get(ctx, args[0])
		},
	},
	{
		name:  "create",
		usage: "create <long-url> [--slug s] [--title t] [--expires-at ts] [--fetch-title]",
		about: "shorten a URL",
		nargs: 1,
		flags: func(fs *pflag.FlagSet) {
			fs.String("slug", "", "requested slug")
			fs.String("title", "", "link title")
			fs.String("expires-at", "", "expiry timestamp (ISO 8601)")
			fs.Bool("fetch-title", false, "use the page title when --title is empty")
		},
		run: func(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string) error {
			slug, _ := fs.GetString("slug")
			title, _ := fs.GetString("title")
			fetch, _ := fs.GetBool("fetch-title")
			expires, err := timestampFlag(fs, "expires-at")
			if err != nil {
				return err
			}
			opts := zshort.CreateOptions{Slug: slug, Title: title, ExpiresAt: expires}
			return a.Create(ctx, args[0], opts, fetch)
		},
	},
	{
		name:  "edit",
		usage: "edit <slug> [--url u] [--new-slug s] [--title t] [--expires-at ts]",
		about: "change a short link",
		nargs: 1,
		flags: func(fs *pflag.FlagSet) {
			fs.String("url", "", "new long URL")
			fs.String("new-slug", "", "new slug")
			fs.String("title", "", "new title")
			fs.String("expires-at", "", "new expiry timestamp (ISO 8601)")
		},
		run: func(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string) error {
			longURL, _ := fs.GetString("url")
			newSlug, _ := fs.GetString("new-slug")
			title, _ := fs.GetString("title")
			expires, err := timestampFlag(fs, "expires-at")
			if err != nil {
				return err
			}
			opts := zshort.EditOptions{URL: longURL, NewSlug: newSlug, Title: title, ExpiresAt: expires}
			return a.Edit(ctx, args[0], opts)
		},
	},
	{
		name:  "delete",
		usage: "delete <slug>",
		about: "remove a short link",
		nargs: 1,
		run: func(ctx context.Context, a *app.App, _ *pflag.FlagSet, args []string) error {
			return a.Delete(ctx, args[0])
		},
	},
	{
		name:  "bulk",
		usage: "bulk <manifest.yaml|json> [--fetch-title]",
		about: "create every link listed in a manifest file",
		nargs: 1,
		flags: func(fs *pflag.FlagSet) {
			fs.Bool("fetch-title", false, "use page titles for untitled links")
		},
		run: func(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string) error {
			fetch, _ := fs.GetBool("fetch-title")
			return a.Bulk(ctx, args[0], fetch)
		},
	},
	{
		name:  "qr",
		usage: "qr <slug> [--out file.png] [--size px]",
		about: "write a PNG QR code for a short link",
		nargs: 1,
		flags: func(fs *pflag.FlagSet) {
			fs.String("out", "", "output file (default <slug>.png)")
			fs.Int("size", qr.DefaultSize, "image size in pixels")
		},
		run: func(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string) error {
			out, _ := fs.GetString("out")
			if out == "" {
				out = args[0] + ".png"
			}
			size, _ := fs.GetInt("size")
			return a.QR(ctx, args[0], out, size)
		},
	},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: zshort <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.about)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "run 'zshort <command> --help' for command flags")
}

// execute parses args, builds the runtime and runs one command.
func execute(ctx context.Context, args []string, stdout io.Writer, opts ...app.Option) (err error) {
	if len(args) == 0 {
		usage(os.Stderr)
		return errors.New("missing command")
	}
	switch args[0] {
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	}

	cmd, ok := lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown command %q", args[0])
	}

	fs := pflag.NewFlagSet("zshort "+cmd.name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: zshort %s\n\n", cmd.usage)
		fs.PrintDefaults()
	}
	config.RegisterFlags(fs)
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != cmd.nargs {
		return fmt.Errorf("usage: zshort %s", cmd.usage)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.DebugObj("zshort command", "command", map[string]any{
		"name":        cmd.name,
		"host":        cfg.Host,
		"output":      cfg.Output,
		"token_store": cfg.TokenStore,
	})

	a, err := app.New(ctx, cfg, log, append([]app.Option{app.WithOutput(stdout)}, opts...)...)
	if err != nil {
		logger.ErrorObj("failed to initialize zshort", "error", err.Error())
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close: %w", cerr))
		}
	}()

	return cmd.run(ctx, a, fs, fs.Args())
}

func passwordFrom(fs *pflag.FlagSet) (string, error) {
	password, _ := fs.GetString("password")
	if password == "" {
		password = os.Getenv(passwordEnv)
	}
	if password == "" {
		return "", fmt.Errorf("password required (--password or $%s)", passwordEnv)
	}
	return password, nil
}

func timestampFlag(fs *pflag.FlagSet, name string) (time.Time, error) {
	raw, _ := fs.GetString(name)
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	t, err := zshort.ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samvad-hq/zshort-go/internal/auth"
	"github.com/samvad-hq/zshort-go/internal/config"
	"github.com/samvad-hq/zshort-go/internal/logger"
	"github.com/samvad-hq/zshort-go/internal/manifest"
	"github.com/samvad-hq/zshort-go/internal/qr"
	"github.com/samvad-hq/zshort-go/internal/scraper"
	"github.com/samvad-hq/zshort-go/internal/storage"
	"github.com/samvad-hq/zshort-go/pkg/httpclient"
	"github.com/samvad-hq/zshort-go/pkg/publishers"
	"github.com/samvad-hq/zshort-go/pkg/zshort"
)

// TitleFetcher looks up a page title for a long URL.
type TitleFetcher interface {
	Title(ctx context.Context, pageURL string) (string, error)
}

// App is the CLI runtime. It owns the API client, the token store and the
// event publishers, and renders results to its output.
type App struct {
	cfg    *config.Config
	client *zshort.Client
	store  storage.Store
	fanout *publishers.Fanout
	titles TitleFetcher
	out    io.Writer
	log    logger.Logger
}

// Option customizes App construction.
type Option func(*settings)

type settings struct {
	transport httpclient.Client
	titles    TitleFetcher
	out       io.Writer
}

// WithTransport sends API calls through transport instead of the default client.
func WithTransport(transport httpclient.Client) Option {
	return func(s *settings) { s.transport = transport }
}

// WithTitleFetcher replaces the page title scraper.
func WithTitleFetcher(f TitleFetcher) Option {
	return func(s *settings) { s.titles = f }
}

// WithOutput redirects rendered results (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(s *settings) { s.out = w }
}

// New builds the runtime from config.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.out == nil {
		s.out = os.Stdout
	}

	storeOpts := storage.Options{
		TokenTTL:        cfg.TokenTTL,
		CleanupInterval: cfg.TokenCleanupInterval,
	}
	store, err := storage.NewStore(cfg.TokenStore, cfg.TokenStorePath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init token store: %w", err)
	}
	log.DebugObj("token store initialized", "storage_config", map[string]any{
		"type": cfg.TokenStore,
		"path": cfg.TokenStorePath,
	})

	token := cfg.Token
	if token == "" {
		stored, ok, err := store.Token(cfg.Host)
		if err != nil {
			log.WarnObj("token store read failed", "error", err.Error())
		} else if ok {
			token = stored
		}
	}

	clientOpts := []zshort.Option{
		zshort.WithHost(cfg.Host),
		zshort.WithToken(token),
		zshort.WithTimeout(cfg.Timeout),
		zshort.WithLogger(log),
	}
	if s.transport != nil {
		clientOpts = append(clientOpts, zshort.WithTransport(s.transport))
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	titles := s.titles
	if titles == nil {
		titles = scraper.New(nil)
	}

	return &App{
		cfg:    cfg,
		client: zshort.New(clientOpts...),
		store:  store,
		fanout: fanout,
		titles: titles,
		out:    s.out,
		log:    log,
	}, nil
}

func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		return publishers.NewFanout(nil), nil
	}

	reg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Client exposes the underlying API client.
func (a *App) Client() *zshort.Client { return a.client }

// Close releases publishers, the API client and the token store.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return errors.Join(a.fanout.Close(), a.client.Close(), a.store.Close())
}

// Login authenticates and persists the token for this host.
func (a *App) Login(ctx context.Context, username, password string) error {
	if err := a.client.Login(ctx, username, password); err != nil {
		return err
	}
	return a.persistToken()
}

// Register creates an account and persists the returned token.
func (a *App) Register(ctx context.Context, username, password, invite string) error {
	if err := a.client.Register(ctx, username, password, invite); err != nil {
		return err
	}
	return a.persistToken()
}

func (a *App) persistToken() error {
	token := a.client.Token()
	expiresAt, err := auth.Expiry(token)
	if err != nil {
		a.log.DebugObj("token expiry unavailable, using ttl", "token_meta", map[string]any{
			"reason": err.Error(),
			"ttl":    a.cfg.TokenTTL.String(),
		})
	}
	if err := a.store.SaveToken(a.cfg.Host, token, expiresAt); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	a.log.InfoObj("authenticated", "auth_meta", map[string]any{
		"host":    a.cfg.Host,
		"subject": auth.Subject(token),
	})
	return a.render(authResult{Host: a.cfg.Host, Authenticated: true})
}

// Logout forgets the stored token for this host.
func (a *App) Logout() error {
	if err := a.store.DeleteToken(a.cfg.Host); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return a.render(authResult{Host: a.cfg.Host, Authenticated: false})
}

// Get prints the short URL for slug.
func (a *App) Get(ctx context.Context, slug string) error {
	short, err := a.client.Get(ctx, slug)
	if err != nil {
		return err
	}
	return a.render(short)
}

// Create shortens longURL, optionally looking up a title first, and prints the result.
func (a *App) Create(ctx context.Context, longURL string, opts zshort.CreateOptions, fetchTitle bool) error {
	short, err := a.create(ctx, longURL, opts, fetchTitle)
	if err != nil {
		return err
	}
	return a.render(short)
}

func (a *App) create(ctx context.Context, longURL string, opts zshort.CreateOptions, fetchTitle bool) (*zshort.ShortURL, error) {
	if opts.Title == "" && (fetchTitle || a.cfg.FetchTitles) && a.client.Authenticated() {
		opts.Title = a.lookupTitle(ctx, longURL)
	}

	short, err := a.client.Create(ctx, longURL, opts)
	if err != nil {
		return nil, err
	}
	a.publish(ctx, publishers.ActionCreated, short.Slug, short)
	return short, nil
}

func (a *App) lookupTitle(ctx context.Context, longURL string) string {
	title, err := a.titles.Title(ctx, longURL)
	if err != nil {
		a.log.WarnObj("title lookup failed", "title_error", map[string]any{
			"url":   longURL,
			"error": err.Error(),
		})
		return ""
	}
	return title
}

// Edit updates the short URL at slug and prints the result.
func (a *App) Edit(ctx context.Context, slug string, opts zshort.EditOptions) error {
	short, err := a.client.Edit(ctx, slug, opts)
	if err != nil {
		return err
	}
	a.publish(ctx, publishers.ActionEdited, short.Slug, short)
	return a.render(short)
}

// Delete removes the short URL at slug.
func (a *App) Delete(ctx context.Context, slug string) error {
	if err := a.client.Delete(ctx, slug); err != nil {
		return err
	}
	a.publish(ctx, publishers.ActionDeleted, slug, nil)
	return a.render(deleteResult{Slug: slug, Deleted: true})
}

// Bulk creates every link of a manifest file. Failures do not stop the run;
// they are returned joined after all entries were attempted.
func (a *App) Bulk(ctx context.Context, path string, fetchTitle bool) error {
	links, err := manifest.Load(path)
	if err != nil {
		return err
	}

	created := make([]*zshort.ShortURL, 0, len(links))
	errs := make([]error, 0)
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		opts, err := link.CreateOptions()
		if err != nil {
			errs = append(errs, fmt.Errorf("links[%d] %s: %w", i, link.URL, err))
			continue
		}
		short, err := a.create(ctx, link.URL, opts, fetchTitle)
		if err != nil {
			errs = append(errs, fmt.Errorf("links[%d] %s: %w", i, link.URL, err))
			a.log.ErrorObj("bulk create failed", "bulk_error", map[string]any{
				"index": i,
				"url":   link.URL,
				"error": err.Error(),
			})
			continue
		}
		created = append(created, short)
	}

	a.log.InfoObj("bulk create completed", "bulk_meta", map[string]any{
		"links":   len(links),
		"created": len(created),
		"failed":  len(errs),
	})
	if err := a.render(created); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// QR writes a PNG QR code of the short link for slug to path.
func (a *App) QR(ctx context.Context, slug, path string, size int) error {
	short, err := a.client.Get(ctx, slug)
	if err != nil {
		return err
	}
	if err := qr.WriteFile(short.URL, size, path); err != nil {
		return err
	}
	return a.render(qrResult{URL: short.URL, File: path})
}

// publish notifies the configured sinks. Delivery failures are logged only.
func (a *App) publish(ctx context.Context, action, slug string, short *zshort.ShortURL) {
	if a.fanout.Size() == 0 {
		return
	}
	evt := publishers.NewEvent(action, a.cfg.Host, slug, short)
	delivered, err := a.fanout.Publish(ctx, evt)
	if err != nil {
		a.log.WarnObj("link event delivery failed", "publish_error", map[string]any{
			"event_id":  evt.ID,
			"action":    action,
			"delivered": delivered,
			"error":     err.Error(),
		})
		return
	}
	a.log.DebugObj("link event delivered", "publish_meta", map[string]any{
		"event_id":  evt.ID,
		"action":    action,
		"delivered": delivered,
	})
}

func (a *App) render(v any) error {
	return Render(a.out, a.cfg.Output, v)
}

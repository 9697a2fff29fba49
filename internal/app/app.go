package app

import (
	"context"
	"fmt"
	"time"

	"github.com/five82/pinwall/internal/auth"
	"github.com/five82/pinwall/internal/config"
	"github.com/five82/pinwall/internal/deletion"
	"github.com/five82/pinwall/internal/gallery"
	"github.com/five82/pinwall/internal/gateway"
	"github.com/five82/pinwall/internal/logging"
	"github.com/five82/pinwall/internal/pinning"
	"github.com/five82/pinwall/internal/prefs"
	"github.com/five82/pinwall/internal/ui"
	"github.com/five82/pinwall/internal/upload"
)

// Options configure the pinwall application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/pinwall/prefs.toml
	PollEvery  int    // seconds; zero uses the config value
	LogLevel   string // zerolog level name; empty means info
}

// Run boots the pinwall TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closer, err := logging.New(cfg.LogPath(), opts.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		log.Warn().Err(err).Msg("preferences unreadable; using defaults")
	}

	client, err := pinning.NewClient(pinning.Options{
		BaseURL:       cfg.APIURL,
		SessionPath:   cfg.SessionPath,
		LogoutPath:    cfg.LogoutPath,
		PinsPath:      cfg.PinsPath,
		SessionCookie: cfg.SessionCookie,
		Timeout:       cfg.RequestTimeout,
		Logger:        logging.Component(log, "pinning"),
	})
	if err != nil {
		return fmt.Errorf("init pinning client: %w", err)
	}

	var store *gallery.Store
	tokens := auth.NewManager(client, auth.Options{
		FetchTimeout: cfg.RequestTimeout,
		Logger:       logging.Component(log, "auth"),
		OnFetched:    func() { store.Dispatch(gallery.TokenFetched{}) },
	})
	client.UseTokens(tokens)

	store = gallery.NewStore(client, gallery.Options{Logger: logging.Component(log, "gallery")})

	resolver := gateway.NewResolver(cfg.Gateways, cfg.Placeholder)

	interval := cfg.PollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	log.Info().
		Str("api", cfg.APIURL).
		Strs("gateways", resolver.Hosts()).
		Dur("poll", interval).
		Bool("cookie", cfg.SessionCookie != "").
		Msg("pinwall starting")

	pollCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	StartPoller(pollCtx, store, interval, logging.Component(log, "poller"))

	err = ui.Run(ui.Options{
		Context:   ctx,
		Gallery:   store,
		Uploads:   upload.NewCoordinator(client, store, logging.Component(log, "upload")),
		Deletions: deletion.NewCoordinator(tokens, client, store, logging.Component(log, "deletion")),
		Session:   tokens,
		Resolver:  resolver,
		Tracker:   gateway.NewTracker(resolver),
		Prober:    gateway.NewProber(nil, logging.Component(log, "gateway")),
		LogPath:   cfg.LogPath(),
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
		UploadDir: userPrefs.UploadDir,
		Logger:    logging.Component(log, "ui"),
	})
	log.Info().Err(err).Msg("pinwall exiting")
	return err
}

// Package app wires configuration, storage and services into the two
// binaries: the read API server and the one-shot scraper.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/cosmicclassroom/contentd/internal/cache"
	"github.com/cosmicclassroom/contentd/internal/config"
	"github.com/cosmicclassroom/contentd/internal/fetcher"
	httphandler "github.com/cosmicclassroom/contentd/internal/handler/http"
	"github.com/cosmicclassroom/contentd/internal/normalizer"
	"github.com/cosmicclassroom/contentd/internal/parser"
	"github.com/cosmicclassroom/contentd/internal/scraper"
	"github.com/cosmicclassroom/contentd/internal/service/content"
	"github.com/cosmicclassroom/contentd/internal/snapshot"
	"github.com/cosmicclassroom/contentd/internal/spaceapi"
)

const (
	shutdownTimeout = 5 * time.Second
	pingTimeout     = 5 * time.Second
)

type App struct {
	cfgPath string
	cfg     *config.Config
	srv     *http.Server
	log     *slog.Logger
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

func (a *App) Start() {
	a.cfg = config.MustLoad(a.cfgPath)
	a.log = newLogger(a.cfg.LogLevel)
	log := a.log

	// The cache is optional: no redis_url means every read goes to disk.
	var bundleCache content.BundleCache
	if a.cfg.Cache.RedisURL != "" {
		opt, err := redis.ParseURL(a.cfg.Cache.RedisURL)
		if err != nil {
			panic(err)
		}

		rdb := redis.NewClient(opt)

		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			panic(err)
		}

		bundleCache = cache.New(rdb, a.cfg.Cache.TTL.Std(), log)
	}

	store, err := snapshot.NewStore(a.cfg.DataDir, log)
	if err != nil {
		panic(err)
	}

	contentSrv := content.New(store, bundleCache,
		a.cfg.Staleness.FreshAfter.Std(), a.cfg.Staleness.RefreshAfter.Std(),
		time.Now, log)
	spaceSrv := spaceapi.New(a.cfg.NASAAPIKey)

	http.Handle("GET /api/content", httphandler.NewContentHandler(contentSrv, log))
	http.Handle("GET /api/content/status", httphandler.NewStatusHandler(contentSrv, log))
	http.Handle("GET /api/archives", httphandler.NewArchiveListHandler(contentSrv, log))
	http.Handle("GET /api/archives/{date}", httphandler.NewArchiveHandler(contentSrv, log))

	http.Handle("GET /api/iss/position", httphandler.NewISSPositionHandler(spaceSrv, log))
	http.Handle("GET /api/iss/crew", httphandler.NewISSCrewHandler(spaceSrv, log))
	http.Handle("GET /api/mars/photo", httphandler.NewMarsPhotoHandler(spaceSrv, log))
	http.Handle("GET /api/news", httphandler.NewNewsHandler(spaceSrv, log))

	http.Handle("GET /healthz", httphandler.NewHealthHandler())
	http.Handle("GET /metrics", promhttp.Handler())

	a.srv = &http.Server{
		Addr: a.cfg.Listen,
	}

	go func() {
		log.Info("Start listen", slog.String("addr", a.cfg.Listen))

		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Could not serve", slog.String("listen_addr", a.cfg.Listen), slog.Any("error", err))
			os.Exit(2)
		}
	}()
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.srv.Shutdown(ctx); err != nil {
		a.log.Error("Shutdown failed", slog.Any("error", err))
	}
}

// Scrape runs one complete ingestion pass. It returns an error only when
// startup or the primary snapshot write fails; a run that fell back to
// static content still counts as success.
func Scrape(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	log := newLogger(cfg.LogLevel)

	store, err := snapshot.NewStore(cfg.DataDir, log)
	if err != nil {
		return err
	}

	f := fetcher.NewWithClient(
		&http.Client{Timeout: cfg.Scraper.Timeout.Std()},
		cfg.Scraper.ProxyURL, cfg.Scraper.UserAgent)
	p := parser.New(cfg.Scraper.MinTitleLen, cfg.Scraper.MaxShows, log)
	norm := normalizer.New(time.Now().UnixNano(), time.Now)

	orch := scraper.New(&cfg.Scraper, cfg.RetentionDays, f, p, norm, store, time.Now, log)

	if _, err := orch.Run(ctx); err != nil {
		return err
	}

	// A fresh snapshot supersedes whatever the server has cached; drop the
	// cached bundle so readers see the new data before the TTL runs out.
	if cfg.Cache.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			return err
		}

		c := cache.New(redis.NewClient(opt), cfg.Cache.TTL.Std(), log)
		if err := c.Invalidate(ctx); err != nil {
			log.Warn("Cannot invalidate bundle cache", slog.Any("error", err))
		}
	}

	return nil
}

func newLogger(level string) *slog.Logger {
	lo := &slog.HandlerOptions{}
	switch level {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}

	return slog.New(slog.NewTextHandler(os.Stderr, lo))
}

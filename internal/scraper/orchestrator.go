// Package scraper coordinates one scheduled ingestion run:
// fetch → parse → normalize → persist. It is a single-pass batch job; the
// external scheduler provides retries by running it again tomorrow.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/cosmicclassroom/contentd/internal/config"
	"github.com/cosmicclassroom/contentd/internal/entity"
	"github.com/cosmicclassroom/contentd/internal/fallback"
	"github.com/cosmicclassroom/contentd/internal/normalizer"
	"github.com/cosmicclassroom/contentd/internal/parser"
	"github.com/cosmicclassroom/contentd/internal/snapshot"
)

// State tracks where a run is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateParsing
	StateNormalizing
	StatePersisted
	StateFailed
)

func (s State) String() string {
	return [...]string{"Idle", "Fetching", "Parsing", "Normalizing", "Persisted", "Failed"}[s]
}

const sourceLabel = "NASA+ Daily Scraper"

type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type Store interface {
	WriteCurrent(bundle *entity.ContentBundle) error
	WriteArchive(bundle *entity.ContentBundle, dateKey string) error
	PruneArchives(keep int) error
}

type Orchestrator struct {
	cfg           *config.ScraperConfig
	retentionDays int
	fetcher       Fetcher
	parser        *parser.Parser
	norm          *normalizer.Normalizer
	store         Store
	limiter       *rate.Limiter
	clock         func() time.Time

	state State
	log   *slog.Logger
}

func New(cfg *config.ScraperConfig, retentionDays int, fetcher Fetcher, p *parser.Parser,
	norm *normalizer.Normalizer, store Store, clock func() time.Time, log *slog.Logger) *Orchestrator {

	// The limiter paces the sequential series loop. This is a deliberate
	// self-throttle against the relay and origin, not a tunable for speed.
	limit := rate.Inf
	if d := cfg.RequestDelay.Std(); d > 0 {
		limit = rate.Every(d)
	}

	return &Orchestrator{
		cfg:           cfg,
		retentionDays: retentionDays,
		fetcher:       fetcher,
		parser:        p,
		norm:          norm,
		store:         store,
		limiter:       rate.NewLimiter(limit, 1),
		clock:         clock,
		state:         StateIdle,
		log:           log.With(slog.String("item", "Orchestrator")),
	}
}

type fetchedPage struct {
	url  string
	body string
}

// Run executes one complete ingestion pass and always leaves a current
// snapshot behind: real data on success (partial success included), the
// fallback bundle when every source failed. The returned error is non-nil
// only when the primary snapshot write itself failed.
func (o *Orchestrator) Run(ctx context.Context) (*entity.ContentBundle, error) {
	log := o.log.With(slog.String("run_id", uuid.NewString()))
	started := o.clock()

	log.Info("Starting ingestion run")

	// Fetch. Homepage and the series set settle independently; one source
	// failing must not cancel the other.
	o.transition(log, StateFetching)

	var (
		wg          sync.WaitGroup
		homepage    fetchedPage
		homepageErr error
		seriesPages []fetchedPage
		seriesErrs  int
	)

	wg.Add(2)

	go func() {
		defer wg.Done()

		body, err := o.fetcher.Fetch(ctx, o.cfg.HomepageURL)
		if err != nil {
			homepageErr = err
			log.Error("Homepage fetch failed", slog.String("url", o.cfg.HomepageURL), slog.Any("error", err))

			return
		}

		homepage = fetchedPage{url: o.cfg.HomepageURL, body: body}
	}()

	go func() {
		defer wg.Done()

		// Series pages are intentionally sequential with pacing; do not
		// parallelize this loop against the same origin.
		for _, u := range o.cfg.SeriesURLs {
			if err := o.limiter.Wait(ctx); err != nil {
				seriesErrs += len(o.cfg.SeriesURLs) - len(seriesPages)
				log.Error("Pacing interrupted", slog.Any("error", err))

				return
			}

			body, err := o.fetcher.Fetch(ctx, u)
			if err != nil {
				seriesErrs++
				log.Warn("Series fetch failed", slog.String("url", u), slog.Any("error", err))

				continue
			}

			seriesPages = append(seriesPages, fetchedPage{url: u, body: body})
		}
	}()

	wg.Wait()

	if homepageErr != nil && len(seriesPages) == 0 {
		return o.persistFailure(log, started, fmt.Sprintf("all sources failed: %v", homepageErr))
	}

	// Parse.
	o.transition(log, StateParsing)

	var shows []parser.ShowFragment
	if homepageErr == nil {
		shows = o.parser.ParseShows(homepage.body, parser.HintAuto)
	}

	var series []normalizer.SeriesSource
	for _, page := range seriesPages {
		frag, ok := o.parser.ParseSeriesPage(page.body, parser.HintAuto)
		if !ok {
			log.Warn("Series page yielded no record", slog.String("url", page.url))

			continue
		}

		series = append(series, normalizer.SeriesSource{Fragment: frag, URL: page.url})
	}

	log.Info("Parsed sources",
		slog.Int("shows", len(shows)),
		slog.Int("series", len(series)),
		slog.Int("series_errors", seriesErrs))

	// Normalize.
	o.transition(log, StateNormalizing)

	var extra []entity.Series
	if len(series) < o.cfg.MinSeries {
		// Thin scrape: top up with the static set so pages always have a
		// reasonable catalog to render.
		extra = fallback.Series(o.clock())
	}

	bundle := o.norm.Normalize(normalizer.Input{
		Shows:       shows,
		Series:      series,
		ExtraSeries: extra,
		Source:      sourceLabel,
		StartedAt:   started,
	})

	return o.persist(log, bundle)
}

func (o *Orchestrator) persistFailure(log *slog.Logger, started time.Time, msg string) (*entity.ContentBundle, error) {
	o.transition(log, StateFailed)
	log.Error("Run failed, persisting fallback bundle", slog.String("reason", msg))

	now := o.clock()
	bundle := fallback.ErrorBundle(now, msg)
	bundle.Stats.ScrapeDurationMs = now.Sub(started).Milliseconds()

	if err := o.store.WriteCurrent(bundle); err != nil {
		return nil, fmt.Errorf("cannot persist fallback bundle: %w", err)
	}

	return bundle, nil
}

func (o *Orchestrator) persist(log *slog.Logger, bundle *entity.ContentBundle) (*entity.ContentBundle, error) {
	if err := o.store.WriteCurrent(bundle); err != nil {
		o.transition(log, StateFailed)

		return nil, fmt.Errorf("cannot persist bundle: %w", err)
	}

	dateKey := o.clock().UTC().Format(snapshot.ArchiveDateLayout)
	if err := o.store.WriteArchive(bundle, dateKey); err != nil {
		log.Error("Cannot write archive snapshot", slog.String("date_key", dateKey), slog.Any("error", err))
	}

	if err := o.store.PruneArchives(o.retentionDays); err != nil {
		log.Error("Cannot prune archives", slog.Any("error", err))
	}

	o.transition(log, StatePersisted)
	log.Info("Run complete",
		slog.Int("shows", bundle.Stats.TotalShows),
		slog.Int("live_events", bundle.Stats.TotalLiveEvents),
		slog.Int("series", bundle.Stats.TotalSeries),
		slog.Int64("duration_ms", bundle.Stats.ScrapeDurationMs))

	return bundle, nil
}

func (o *Orchestrator) transition(log *slog.Logger, next State) {
	log.Debug("State transition", slog.String("from", o.state.String()), slog.String("to", next.String()))
	o.state = next
}

// LastState reports the state the most recent run ended in.
func (o *Orchestrator) LastState() State {
	return o.state
}

// Package fallback holds the baked-in content bundle served when no
// snapshot exists or an entire scrape run fails. The records live as
// embedded markdown documents with YAML frontmatter so the fallback catalog
// can be edited without touching Go code.
package fallback

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"

	"github.com/cosmicclassroom/contentd/internal/entity"
	"github.com/cosmicclassroom/contentd/internal/normalizer"
)

//go:embed fixtures
var fixturesFS embed.FS

// SourceLabel marks bundles that were not produced by a successful scrape.
const SourceLabel = "NASA+ Data Service (Fallback)"

var (
	shows  []entity.ContentItem
	events []entity.LiveEvent
	series []entity.Series
)

type showMeta struct {
	ID           string `yaml:"id"`
	Title        string `yaml:"title"`
	Duration     string `yaml:"duration"`
	Category     string `yaml:"category"`
	Series       string `yaml:"series"`
	PublishDate  string `yaml:"publishDate"`
	VideoQuality string `yaml:"videoQuality"`
	Rating       string `yaml:"rating"`
	Thumbnail    string `yaml:"thumbnail"`
	SourceURL    string `yaml:"sourceUrl"`
}

type seriesMeta struct {
	Name     string `yaml:"name"`
	Episodes int    `yaml:"episodes"`
	Icon     string `yaml:"icon"`
}

type eventMeta struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Time   string `yaml:"time"`
	Date   string `yaml:"date"`
	Status string `yaml:"status"`
	Type   string `yaml:"type"`
}

// Fixtures are compiled in; failing to parse them is a programmer error.
func init() {
	if err := load(); err != nil {
		panic(fmt.Sprintf("fallback fixtures: %v", err))
	}
}

func load() error {
	err := eachFixture("fixtures/shows", func(meta *showMeta, body string) {
		shows = append(shows, entity.ContentItem{
			ID:           meta.ID,
			Title:        meta.Title,
			Duration:     meta.Duration,
			Description:  body,
			Thumbnail:    meta.Thumbnail,
			Category:     meta.Category,
			Series:       meta.Series,
			PublishDate:  meta.PublishDate,
			VideoQuality: meta.VideoQuality,
			Rating:       meta.Rating,
			SourceURL:    meta.SourceURL,
		})
	})
	if err != nil {
		return err
	}

	err = eachFixture("fixtures/series", func(meta *seriesMeta, body string) {
		series = append(series, entity.Series{
			Name:        meta.Name,
			Slug:        normalizer.Slugify(meta.Name),
			Episodes:    meta.Episodes,
			Icon:        meta.Icon,
			Description: body,
		})
	})
	if err != nil {
		return err
	}

	return eachFixture("fixtures/events", func(meta *eventMeta, body string) {
		events = append(events, entity.LiveEvent{
			ID:          meta.ID,
			Title:       meta.Title,
			Time:        meta.Time,
			Date:        meta.Date,
			Status:      meta.Status,
			Description: body,
			Type:        meta.Type,
		})
	})
}

// eachFixture parses every markdown document in dir in filename order, so
// fixture numbering controls catalog order (and thereby featured content).
func eachFixture[T any](dir string, emit func(meta *T, body string)) error {
	entries, err := fixturesFS.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	md := goldmark.New(goldmark.WithExtensions(&frontmatter.Extender{}))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		name := dir + "/" + entry.Name()
		data, err := fs.ReadFile(fixturesFS, name)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", name, err)
		}

		ctx := gparser.NewContext()
		root := md.Parser().Parse(text.NewReader(data), gparser.WithContext(ctx))

		fm := frontmatter.Get(ctx)
		if fm == nil {
			return fmt.Errorf("%s has no frontmatter", name)
		}

		var meta T
		if err := fm.Decode(&meta); err != nil {
			return fmt.Errorf("cannot decode %s frontmatter: %w", name, err)
		}

		emit(&meta, bodyText(root, data))
	}

	return nil
}

// bodyText collects the plain text of the document's paragraphs.
func bodyText(root ast.Node, src []byte) string {
	var parts []string

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if para, ok := n.(*ast.Paragraph); ok {
				if t := strings.TrimSpace(string(para.Text(src))); t != "" {
					parts = append(parts, t)
				}

				return ast.WalkSkipChildren, nil
			}
		}

		return ast.WalkContinue, nil
	})

	return strings.Join(parts, "\n\n")
}

// ShowCount and SeriesCount describe the embedded catalog.
func ShowCount() int   { return len(shows) }
func SeriesCount() int { return len(series) }

// Series returns a copy of the fallback series list stamped with now.
func Series(now time.Time) []entity.Series {
	ts := now.UTC().Format(time.RFC3339)

	out := make([]entity.Series, len(series))
	copy(out, series)
	for i := range out {
		out[i].ScrapedAt = ts
	}

	return out
}

// Bundle builds a complete fallback content bundle. runErr, when non-empty,
// is recorded on the bundle so consumers can tell a degraded run from a
// healthy one by inspecting the error field.
func Bundle(now time.Time, runErr string) *entity.ContentBundle {
	ts := now.UTC().Format(time.RFC3339)

	bundleShows := make([]entity.ContentItem, len(shows))
	copy(bundleShows, shows)
	for i := range bundleShows {
		bundleShows[i].ScrapedAt = ts
	}

	bundleEvents := make([]entity.LiveEvent, len(events))
	copy(bundleEvents, events)
	for i := range bundleEvents {
		bundleEvents[i].ScrapedAt = ts
	}

	featured := bundleShows
	if len(featured) > normalizer.FeaturedCount {
		featured = featured[:normalizer.FeaturedCount]
	}

	bundle := &entity.ContentBundle{
		Timestamp:       ts,
		LastUpdated:     ts,
		Version:         normalizer.BundleVersion,
		Source:          SourceLabel,
		Shows:           bundleShows,
		LiveEvents:      bundleEvents,
		Series:          Series(now),
		FeaturedContent: append([]entity.ContentItem(nil), featured...),
		Error:           runErr,
	}
	bundle.Stats = entity.Stats{
		TotalShows:      len(bundle.Shows),
		TotalLiveEvents: len(bundle.LiveEvents),
		TotalSeries:     len(bundle.Series),
	}

	return bundle
}

// ErrorBundle is the shape persisted when an entire scrape run fails:
// catalog content is withheld (empty shows and events), only the static
// series list survives, and the error is recorded.
func ErrorBundle(now time.Time, runErr string) *entity.ContentBundle {
	ts := now.UTC().Format(time.RFC3339)

	bundle := &entity.ContentBundle{
		Timestamp:       ts,
		LastUpdated:     ts,
		Version:         normalizer.BundleVersion,
		Source:          "NASA+ Daily Scraper (Fallback)",
		Shows:           []entity.ContentItem{},
		LiveEvents:      []entity.LiveEvent{},
		Series:          Series(now),
		FeaturedContent: []entity.ContentItem{},
		Error:           runErr,
	}
	bundle.Stats = entity.Stats{
		TotalSeries: len(bundle.Series),
	}

	return bundle
}

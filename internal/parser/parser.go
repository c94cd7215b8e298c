// Package parser extracts typed content fragments from the loosely
// structured HTML or markdown that upstream pages (and relay services)
// return. It is deliberately tolerant: a record that cannot be extracted is
// skipped, never an error for the caller.
package parser

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SourceHint tells the parser what the raw document is. HintAuto sniffs.
type SourceHint int

const (
	HintAuto SourceHint = iota
	HintHTML
	HintMarkdown
)

// ShowFragment is a partially extracted show record. Missing fields are
// filled in by the normalizer.
type ShowFragment struct {
	Title       string
	Duration    string
	Description string
	Thumbnail   string
	SourceURL   string
}

// SeriesFragment is a partially extracted series record. Episodes is zero
// when the page carried no countable episode markup.
type SeriesFragment struct {
	Name        string
	Description string
	Episodes    int
}

// Selector sets mirror the markup variants observed on the upstream site.
const (
	showSelectors        = "[data-video], .video-card, .content-card, h3, h4, .title"
	showTitleSelectors   = "h3, h4, .title"
	showDescSelectors    = ".description, p"
	durationSelectors    = ".duration, .time"
	seriesTitleSelectors = "h1, .series-title, title"
	seriesDescSelectors  = ".series-description, .description, p"
	episodeSelectors     = ".episode, .video-card, h3, h4"
)

type Parser struct {
	minTitleLen int
	maxShows    int
	log         *slog.Logger
}

func New(minTitleLen, maxShows int, log *slog.Logger) *Parser {
	return &Parser{
		minTitleLen: minTitleLen,
		maxShows:    maxShows,
		log:         log.With(slog.String("item", "Parser")),
	}
}

// ParseShows extracts show fragments from a homepage-like document.
// Titles shorter than the minimum length are treated as navigation noise
// and discarded; duplicates are collapsed on title.
func (p *Parser) ParseShows(raw string, hint SourceHint) []ShowFragment {
	if p.sniff(raw, hint) == HintMarkdown {
		return p.parseShowsMarkdown(raw)
	}

	return p.parseShowsHTML(raw)
}

// ParseSeriesPage extracts a single series record from a series page.
// The second return value is false when no usable name was found.
func (p *Parser) ParseSeriesPage(raw string, hint SourceHint) (SeriesFragment, bool) {
	if p.sniff(raw, hint) == HintMarkdown {
		return p.parseSeriesMarkdown(raw)
	}

	return p.parseSeriesHTML(raw)
}

func (p *Parser) parseShowsHTML(raw string) []ShowFragment {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		p.log.Warn("Cannot build document, skipping batch", slog.Any("error", err))

		return nil
	}

	var shows []ShowFragment
	seen := make(map[string]struct{})

	doc.Find(showSelectors).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Find(showTitleSelectors).First().Text())
		if title == "" {
			title = strings.TrimSpace(sel.Text())
		}

		if !p.usableTitle(title, seen) {
			return true
		}

		frag := ShowFragment{
			Title:       title,
			Duration:    strings.TrimSpace(sel.Find(durationSelectors).First().Text()),
			Description: strings.TrimSpace(sel.Find(showDescSelectors).First().Text()),
		}
		if src, ok := sel.Find("img").First().Attr("src"); ok {
			frag.Thumbnail = src
		}
		if href, ok := sel.Find("a").First().Attr("href"); ok && strings.Contains(href, "/video/") {
			frag.SourceURL = href
		}

		seen[title] = struct{}{}
		shows = append(shows, frag)

		return len(shows) < p.maxShows
	})

	return shows
}

func (p *Parser) parseSeriesHTML(raw string) (SeriesFragment, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		p.log.Warn("Cannot build series document", slog.Any("error", err))

		return SeriesFragment{}, false
	}

	name := strings.TrimSpace(doc.Find(seriesTitleSelectors).First().Text())
	if name == "" {
		return SeriesFragment{}, false
	}

	return SeriesFragment{
		Name:        name,
		Description: strings.TrimSpace(doc.Find(seriesDescSelectors).First().Text()),
		Episodes:    doc.Find(episodeSelectors).Length(),
	}, true
}

func (p *Parser) usableTitle(title string, seen map[string]struct{}) bool {
	if len([]rune(title)) < p.minTitleLen {
		return false
	}
	// Blocks of running text are page copy, not a card title.
	if strings.Count(title, "\n") > 2 {
		return false
	}
	if _, dup := seen[title]; dup {
		return false
	}

	return true
}

// sniff decides between HTML and markdown. Anything that opens with a tag
// is HTML; relays that render pages to markdown never emit one.
func (p *Parser) sniff(raw string, hint SourceHint) SourceHint {
	if hint != HintAuto {
		return hint
	}

	head := strings.ToLower(raw)
	if len(head) > 512 {
		head = head[:512]
	}
	if strings.Contains(head, "<html") || strings.Contains(head, "<body") ||
		strings.HasPrefix(strings.TrimSpace(head), "<") {
		return HintHTML
	}

	return HintMarkdown
}

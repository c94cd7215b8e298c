package parser

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const homepageHTML = `<html>
<body>
	<nav><h3>Menu</h3></nav>
	<div class="video-card">
		<h3>Cosmic Dawn: The Untold Story of the James Webb Space Telescope</h3>
		<p class="description">The definitive story of the James Webb Space Telescope.</p>
		<span class="duration">02:15:23</span>
		<img src="https://example.com/webb.jpg">
		<a href="https://plus.nasa.gov/video/cosmic-dawn/">Watch</a>
	</div>
	<div class="content-card">
		<h4>Far Out: Science You Can Eat</h4>
		<p>Taste the science.</p>
	</div>
	<div class="video-card">
		<h3>Cosmic Dawn: The Untold Story of the James Webb Space Telescope</h3>
	</div>
	<h3>Planetary Defenders Documentary</h3>
</body>
</html>`

func newTestParser(minTitleLen, maxShows int) *Parser {
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	return New(minTitleLen, maxShows, log)
}

func TestParseShowsHTML(t *testing.T) {
	p := newTestParser(10, 20)

	shows := p.ParseShows(homepageHTML, HintAuto)
	require.NotEmpty(t, shows)

	titles := make(map[string]int)
	for _, s := range shows {
		titles[s.Title]++
	}

	// Short navigation text is dropped, duplicates collapse to one.
	assert.NotContains(t, titles, "Menu")
	assert.Equal(t, 1, titles["Cosmic Dawn: The Untold Story of the James Webb Space Telescope"])
	assert.Contains(t, titles, "Far Out: Science You Can Eat")
	assert.Contains(t, titles, "Planetary Defenders Documentary")

	first := shows[0]
	assert.Equal(t, "02:15:23", first.Duration)
	assert.Equal(t, "The definitive story of the James Webb Space Telescope.", first.Description)
	assert.Equal(t, "https://example.com/webb.jpg", first.Thumbnail)
	assert.Equal(t, "https://plus.nasa.gov/video/cosmic-dawn/", first.SourceURL)
}

func TestParseShowsMaxLimit(t *testing.T) {
	p := newTestParser(10, 2)

	shows := p.ParseShows(homepageHTML, HintAuto)
	assert.Len(t, shows, 2)
}

func TestParseShowsRejectsRunningText(t *testing.T) {
	p := newTestParser(10, 20)

	raw := "<html><body><h3>line one is long enough\nline two\nline three\nline four</h3></body></html>"
	shows := p.ParseShows(raw, HintAuto)
	assert.Empty(t, shows)
}

func TestParseShowsMinTitleLengthIsRunes(t *testing.T) {
	p := newTestParser(10, 20)

	// Ten runes but more than ten bytes; must pass the length filter.
	raw := "<html><body><h3>телескоп хаббл</h3></body></html>"
	shows := p.ParseShows(raw, HintAuto)
	require.Len(t, shows, 1)
	assert.Equal(t, "телескоп хаббл", shows[0].Title)
}

func TestParseSeriesPageHTML(t *testing.T) {
	p := newTestParser(10, 20)

	raw := `<html><body>
		<h1>Other Worlds</h1>
		<p class="series-description">Journey to alien landscapes.</p>
		<div class="episode">e1</div>
		<div class="episode">e2</div>
		<div class="episode">e3</div>
	</body></html>`

	frag, ok := p.ParseSeriesPage(raw, HintAuto)
	require.True(t, ok)
	assert.Equal(t, "Other Worlds", frag.Name)
	assert.Equal(t, "Journey to alien landscapes.", frag.Description)
	assert.Equal(t, 3, frag.Episodes)
}

func TestParseSeriesPageNoName(t *testing.T) {
	p := newTestParser(10, 20)

	_, ok := p.ParseSeriesPage("<html><body><p>nothing here</p></body></html>", HintAuto)
	assert.False(t, ok)
}

func TestSniff(t *testing.T) {
	p := newTestParser(10, 20)

	testCases := []struct {
		name string
		raw  string
		want SourceHint
	}{
		{"full document", "<html><body></body></html>", HintHTML},
		{"body only", "something <body>x</body>", HintHTML},
		{"leading tag", "  <div>x</div>", HintHTML},
		{"markdown", "# NASA+ Shows\n\nSome text", HintMarkdown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.sniff(tc.raw, HintAuto))
		})
	}
}

func TestSniffHonorsExplicitHint(t *testing.T) {
	p := newTestParser(10, 20)

	assert.Equal(t, HintMarkdown, p.sniff("<html></html>", HintMarkdown))
}

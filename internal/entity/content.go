package entity

import (
	"encoding/json"
	"math"
)

// Event status values. The vocabulary is fixed; anything else found in
// scraped markup is coerced to UPCOMING.
const (
	EventStatusLive      = "LIVE"
	EventStatusUpcoming  = "UPCOMING"
	EventStatusCompleted = "COMPLETED"
)

// ContentItem is one show on the streaming platform. Items are immutable
// after a run; the next run supersedes them wholesale.
//
// ID is slug-of-title when the title slugs cleanly, otherwise
// timestamp+index. It is unique within one run only; a show may change
// identity between runs, so IDs must not be used as durable keys.
type ContentItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Duration     string `json:"duration"` // HH:MM:SS
	Description  string `json:"description"`
	Thumbnail    string `json:"thumbnail"`
	Category     string `json:"category"`
	Series       string `json:"series"`
	PublishDate  string `json:"publishDate"`
	VideoQuality string `json:"videoQuality,omitempty"`
	Rating       string `json:"rating,omitempty"`
	SourceURL    string `json:"sourceUrl"`
	ScrapedAt    string `json:"scrapedAt"` // RFC 3339
}

// LiveEvent is a live or scheduled broadcast. At most a handful are
// meaningful per run (the current stream plus the next event).
type LiveEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Time        string `json:"time"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Type        string `json:"type"`
	ScrapedAt   string `json:"scrapedAt"`
}

// Series groups shows. Episodes is a scraped count when the series page
// yielded one, otherwise an estimated placeholder. The estimate is a
// cosmetic approximation, not a measured fact.
type Series struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Episodes    int    `json:"episodes"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	ScrapedAt   string `json:"scrapedAt"`
}

// Stats summarizes a bundle at write time.
type Stats struct {
	TotalShows       int   `json:"totalShows"`
	TotalLiveEvents  int   `json:"totalLiveEvents"`
	TotalSeries      int   `json:"totalSeries"`
	ScrapeDurationMs int64 `json:"scrapeDurationMs,omitempty"`
}

// ContentBundle is the canonical output of one ingestion run and the unit
// of persistence. It is created whole and never partially updated.
// FeaturedContent is always the first three entries of Shows.
type ContentBundle struct {
	Timestamp       string        `json:"timestamp"`
	LastUpdated     string        `json:"lastUpdated"`
	Version         string        `json:"version"`
	Source          string        `json:"source"`
	Shows           []ContentItem `json:"shows"`
	LiveEvents      []LiveEvent   `json:"liveEvents"`
	Series          []Series      `json:"series"`
	FeaturedContent []ContentItem `json:"featuredContent"`
	Stats           Stats         `json:"stats"`
	Error           string        `json:"error,omitempty"`
}

// DataStatus is derived from the current snapshot's age at read time and is
// never persisted. Age is in hours; a missing snapshot reports +Inf in
// memory, encoded as -1 on the wire since JSON has no infinity.
type DataStatus struct {
	IsFresh      bool    `json:"isFresh"`
	Age          float64 `json:"age"`
	AgeString    string  `json:"ageString"`
	NeedsRefresh bool    `json:"needsRefresh"`
}

func (d DataStatus) MarshalJSON() ([]byte, error) {
	type alias DataStatus

	if math.IsInf(d.Age, 1) {
		d.Age = -1
	}

	return json.Marshal(alias(d))
}

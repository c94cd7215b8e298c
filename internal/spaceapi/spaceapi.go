// Package spaceapi wraps the third-party space APIs the pages consume.
// Every response is decoded into an explicit schema and validated at the
// boundary; responses that don't match fail closed instead of leaking
// half-decoded values inward.
package spaceapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/cosmicclassroom/contentd/internal/common"
	"github.com/cosmicclassroom/contentd/internal/entity"
)

const (
	issPositionURL = "https://api.wheretheiss.at/v1/satellites/25544"
	issCrewURL     = "http://api.open-notify.org/astros.json"
	marsPhotosURL  = "https://api.nasa.gov/mars-photos/api/v1/rovers/curiosity/latest_photos?api_key=%s"
	newsFeedURL    = "https://www.nasa.gov/rss/dyn/breaking_news.rss"

	issCraftName = "ISS"

	defaultTimeout = 10 * time.Second
	maxBodySize    = 2 * 1024 * 1024
	maxNewsItems   = 10
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the upstream space APIs. The NASA API key comes from the
// environment via config; an empty key disables the Mars endpoint.
type Client struct {
	client HTTPClient
	apiKey string
}

func New(apiKey string) *Client {
	return NewWithClient(&http.Client{Timeout: defaultTimeout}, apiKey)
}

func NewWithClient(client HTTPClient, apiKey string) *Client {
	return &Client{
		client: client,
		apiKey: apiKey,
	}
}

// ISSPosition returns the current ISS position.
func (c *Client) ISSPosition(ctx context.Context) (*entity.ISSPosition, error) {
	var pos entity.ISSPosition
	if err := c.getJSON(ctx, issPositionURL, &pos); err != nil {
		return nil, err
	}

	if pos.Latitude == 0 && pos.Longitude == 0 && pos.Timestamp == 0 {
		return nil, fmt.Errorf("iss position: %w", common.ErrSchemaMismatch)
	}

	return &pos, nil
}

// ISSCrew returns the people currently aboard the station.
func (c *Client) ISSCrew(ctx context.Context) ([]entity.CrewMember, error) {
	var payload struct {
		Message string              `json:"message"`
		People  []entity.CrewMember `json:"people"`
	}
	if err := c.getJSON(ctx, issCrewURL, &payload); err != nil {
		return nil, err
	}

	if payload.Message != "success" {
		return nil, fmt.Errorf("iss crew: %w", common.ErrSchemaMismatch)
	}

	crew := make([]entity.CrewMember, 0, len(payload.People))
	for _, p := range payload.People {
		if p.Craft == issCraftName && p.Name != "" {
			crew = append(crew, p)
		}
	}

	return crew, nil
}

// LatestMarsPhoto returns the most recent Curiosity photo, or nil when the
// rover published none.
func (c *Client) LatestMarsPhoto(ctx context.Context) (*entity.MarsPhoto, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("mars photos: NASA API key is not configured")
	}

	var payload struct {
		LatestPhotos []entity.MarsPhoto `json:"latest_photos"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf(marsPhotosURL, c.apiKey), &payload); err != nil {
		return nil, err
	}

	if len(payload.LatestPhotos) == 0 {
		return nil, nil
	}

	photo := payload.LatestPhotos[0]
	if photo.ImgSrc == "" {
		return nil, fmt.Errorf("mars photo: %w", common.ErrSchemaMismatch)
	}

	return &photo, nil
}

// News returns the latest agency news articles from the RSS feed.
func (c *Client) News(ctx context.Context) ([]entity.NewsArticle, error) {
	body, err := c.get(ctx, newsFeedURL)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		return nil, fmt.Errorf("cannot parse news feed: %w", err)
	}

	articles := make([]entity.NewsArticle, 0, maxNewsItems)
	for _, item := range feed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}

		article := entity.NewsArticle{
			Title:   item.Title,
			Link:    item.Link,
			Summary: item.Description,
		}
		if item.PublishedParsed != nil {
			article.PublishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
		}
		if item.Image != nil {
			article.ImageURL = item.Image.URL
		}

		articles = append(articles, article)
		if len(articles) >= maxNewsItems {
			break
		}
	}

	return articles, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrSchemaMismatch, err)
	}

	return nil
}

func (c *Client) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("cannot create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &common.TransportError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &common.HTTPStatusError{URL: url, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &common.TransportError{URL: url, Err: err}
	}

	return string(data), nil
}

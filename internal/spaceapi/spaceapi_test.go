package spaceapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmicclassroom/contentd/internal/common"
)

// routes maps URL substrings to canned responses.
type mockClient struct {
	routes map[string]string
	status int
	err    error
}

func (c *mockClient) Do(req *http.Request) (*http.Response, error) {
	if c.err != nil {
		return nil, c.err
	}

	status := c.status
	if status == 0 {
		status = http.StatusOK
	}

	for key, body := range c.routes {
		if strings.Contains(req.URL.String(), key) {
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(strings.NewReader(body)),
			}, nil
		}
	}

	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func TestISSPosition(t *testing.T) {
	client := &mockClient{routes: map[string]string{
		"wheretheiss.at": `{"name":"iss","id":25544,"latitude":51.5,"longitude":-0.12,"altitude":420.1,"velocity":27580.4,"timestamp":1749988800}`,
	}}
	c := NewWithClient(client, "")

	pos, err := c.ISSPosition(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 51.5, pos.Latitude)
	assert.Equal(t, -0.12, pos.Longitude)
	assert.Equal(t, int64(1749988800), pos.Timestamp)
}

func TestISSPositionSchemaMismatch(t *testing.T) {
	client := &mockClient{routes: map[string]string{
		"wheretheiss.at": `{"unexpected":"shape"}`,
	}}
	c := NewWithClient(client, "")

	_, err := c.ISSPosition(context.Background())
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
}

func TestISSCrewFiltersToStation(t *testing.T) {
	client := &mockClient{routes: map[string]string{
		"open-notify.org": `{"message":"success","number":4,"people":[
			{"name":"Alice Moon","craft":"ISS"},
			{"name":"Bob Star","craft":"Tiangong"},
			{"name":"Carol Sky","craft":"ISS"}
		]}`,
	}}
	c := NewWithClient(client, "")

	crew, err := c.ISSCrew(context.Background())
	require.NoError(t, err)

	require.Len(t, crew, 2)
	assert.Equal(t, "Alice Moon", crew[0].Name)
	assert.Equal(t, "Carol Sky", crew[1].Name)
}

func TestISSCrewUnsuccessfulMessage(t *testing.T) {
	client := &mockClient{routes: map[string]string{
		"open-notify.org": `{"message":"error","people":[]}`,
	}}
	c := NewWithClient(client, "")

	_, err := c.ISSCrew(context.Background())
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
}

func TestLatestMarsPhoto(t *testing.T) {
	client := &mockClient{routes: map[string]string{
		"mars-photos": `{"latest_photos":[{"id":1,"img_src":"https://mars.nasa.gov/p.jpg","earth_date":"2025-06-14","camera":{"name":"NAVCAM","full_name":"Navigation Camera"},"rover":{"name":"Curiosity","status":"active"}}]}`,
	}}
	c := NewWithClient(client, "test-key")

	photo, err := c.LatestMarsPhoto(context.Background())
	require.NoError(t, err)
	require.NotNil(t, photo)

	assert.Equal(t, "https://mars.nasa.gov/p.jpg", photo.ImgSrc)
	assert.Equal(t, "Curiosity", photo.Rover.Name)
}

func TestLatestMarsPhotoEmptyList(t *testing.T) {
	client := &mockClient{routes: map[string]string{
		"mars-photos": `{"latest_photos":[]}`,
	}}
	c := NewWithClient(client, "test-key")

	photo, err := c.LatestMarsPhoto(context.Background())
	require.NoError(t, err)
	assert.Nil(t, photo)
}

func TestLatestMarsPhotoRequiresKey(t *testing.T) {
	c := NewWithClient(&mockClient{}, "")

	_, err := c.LatestMarsPhoto(context.Background())
	assert.Error(t, err)
}

func TestNews(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>NASA Breaking News</title>
    <item>
      <title>NASA Launches New Mission</title>
      <link>https://www.nasa.gov/news/mission</link>
      <description>A new mission is underway.</description>
      <pubDate>Sun, 15 Jun 2025 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title></title>
      <link>https://www.nasa.gov/news/untitled</link>
    </item>
    <item>
      <title>Second Story</title>
      <link>https://www.nasa.gov/news/second</link>
    </item>
  </channel>
</rss>`

	client := &mockClient{routes: map[string]string{
		"breaking_news.rss": feed,
	}}
	c := NewWithClient(client, "")

	articles, err := c.News(context.Background())
	require.NoError(t, err)

	// The untitled item is dropped.
	require.Len(t, articles, 2)
	assert.Equal(t, "NASA Launches New Mission", articles[0].Title)
	assert.Equal(t, "A new mission is underway.", articles[0].Summary)
	assert.Equal(t, "2025-06-15T09:00:00Z", articles[0].PublishedAt)
	assert.Equal(t, "Second Story", articles[1].Title)
}

func TestUpstreamStatusError(t *testing.T) {
	client := &mockClient{
		routes: map[string]string{"wheretheiss.at": "oops"},
		status: http.StatusServiceUnavailable,
	}
	c := NewWithClient(client, "")

	_, err := c.ISSPosition(context.Background())
	require.Error(t, err)

	var statusErr *common.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
}

func TestTransportError(t *testing.T) {
	c := NewWithClient(&mockClient{err: fmt.Errorf("no route to host")}, "")

	_, err := c.ISSPosition(context.Background())

	var transportErr *common.TransportError
	require.ErrorAs(t, err, &transportErr)
}

package entity

// Typed shapes for the third-party space APIs the pages consume. Fields the
// upstream omits decode to zero values; callers treat zero as absent.

// ISSPosition is the wheretheiss.at satellite record.
type ISSPosition struct {
	Name      string  `json:"name"`
	ID        int     `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Velocity  float64 `json:"velocity"`
	Timestamp int64   `json:"timestamp"`
}

// CrewMember is one person aboard a craft, per open-notify.
type CrewMember struct {
	Name  string `json:"name"`
	Craft string `json:"craft"`
}

// MarsPhoto is one rover photo from the NASA Mars Photos API.
type MarsPhoto struct {
	ID        int    `json:"id"`
	ImgSrc    string `json:"img_src"`
	EarthDate string `json:"earth_date"`
	Camera    struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	} `json:"camera"`
	Rover struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"rover"`
}

// NewsArticle is one entry from the agency news feed.
type NewsArticle struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Summary     string `json:"summary"`
	PublishedAt string `json:"publishedAt,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

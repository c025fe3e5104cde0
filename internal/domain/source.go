package domain

import "time"

// Source is a registered origin polled for news.
type Source struct {
	ID        string
	OwnerID   string
	Title     string
	URL       string
	CreatedAt time.Time
}

// FeedItem is one deduplicated news entry extracted from a Source. URL is the dedup key.
type FeedItem struct {
	ID          string
	SourceID    string
	Title       string
	URL         string
	Summary     string
	ImageURL    string
	PublishedAt *time.Time
	Read        bool
	CreatedAt   time.Time
}

// ExtractedItem is a validated item produced by a scanner before persistence.
type ExtractedItem struct {
	Title       string
	URL         string
	Summary     string
	ImageURL    string
	PublishedAt *time.Time
}

// ToFeedItem binds the extracted item to the source it came from.
func (e ExtractedItem) ToFeedItem(sourceID string) FeedItem {
	return FeedItem{
		SourceID:    sourceID,
		Title:       e.Title,
		URL:         e.URL,
		Summary:     e.Summary,
		ImageURL:    e.ImageURL,
		PublishedAt: e.PublishedAt,
	}
}

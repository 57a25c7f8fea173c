package models

import (
	"time"
)

// Link maps a short code to the URL it redirects to.
type Link struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	CreatedAt   time.Time `json:"created_at"`
	Clicks      int64     `json:"clicks"`
}

type ShortenInput struct {
	URL string `json:"url" binding:"required"`
}

type LinkStats struct {
	OriginalURL string    `json:"original_url"`
	ShortCode   string    `json:"short_code"`
	CreatedAt   time.Time `json:"created_at"`
	Clicks      int64     `json:"clicks"`
	ShortURL    string    `json:"short_url,omitempty"`
}

// Stats returns the public view of the link.
func (l *Link) Stats() LinkStats {
	return LinkStats{
		OriginalURL: l.OriginalURL,
		ShortCode:   l.ShortCode,
		CreatedAt:   l.CreatedAt,
		Clicks:      l.Clicks,
	}
}

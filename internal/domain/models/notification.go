package models

import "time"

// Notification is a rendered payload headed for the outbound channel.
type Notification struct {
	Destination string    `json:"destination"`
	Text        string    `json:"text"`
	Language    string    `json:"language"`
	Kind        string    `json:"kind"` // daily, manual, broadcast
	Readings    []Reading `json:"readings,omitempty"`
	RenderedAt  time.Time `json:"rendered_at"`
}

// CacheStatus describes the cache state for one indicator, exposed for
// operator introspection.
type CacheStatus struct {
	Indicator  Indicator  `json:"indicator"`
	HasReading bool       `json:"has_reading"`
	Value      float64    `json:"value,omitempty"`
	Source     string     `json:"source,omitempty"`
	FetchedAt  *time.Time `json:"fetched_at,omitempty"`
	AgeSeconds int64      `json:"age_seconds,omitempty"`
	Fresh      bool       `json:"fresh"`
}

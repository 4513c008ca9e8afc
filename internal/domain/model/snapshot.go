package model

import "time"

// Snapshot sources.
const (
	SourceCSSE     = "csse"
	SourceVaccovid = "vaccovid"
	SourceStocks   = "stocks"
)

// Snapshot is a persisted raw upstream response.
type Snapshot struct {
	ID        int64
	Source    string
	Key       string
	Body      []byte
	Size      int // Body length in bytes; set even when Body is omitted.
	FetchedAt time.Time
}

// Age returns how long ago the snapshot was fetched.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

package model

import "time"

// Dump is a pair of raw responses saved to disk by the dump command: the
// country-wide CSSE report and the daily history. An empty body means the
// file was not present.
type Dump struct {
	CSSE              []byte
	CSSEWrittenAt     time.Time
	Vaccovid          []byte
	VaccovidWrittenAt time.Time
}

// Empty returns true when neither response is present.
func (d Dump) Empty() bool {
	return len(d.CSSE) == 0 && len(d.Vaccovid) == 0
}

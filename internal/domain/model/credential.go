package model

import "time"

// Upstream services that need an API key.
const (
	ServiceCSSE     = "csse"
	ServiceVaccovid = "vaccovid"
	ServiceStocks   = "stocks"
)

// Services lists every service a key can be configured for, in display order.
var Services = []string{ServiceCSSE, ServiceVaccovid, ServiceStocks}

// Credential holds the API key for one upstream service.
type Credential struct {
	ID        int64
	Service   string
	Value     string
	UpdatedAt time.Time
}

// KeyOrigin describes where the active key for a service came from.
type KeyOrigin string

const (
	KeyOriginNone   KeyOrigin = "none"
	KeyOriginFile   KeyOrigin = "file"
	KeyOriginStored KeyOrigin = "stored"
)

// KeyStatus reports whether a service has a usable key without exposing it.
type KeyStatus struct {
	Service string
	Origin  KeyOrigin
	Masked  string // Last four characters only, e.g. "****a1b2".
}

// Package analytics turns raw purchase, device and session rows into the
// comparable period metrics served by the dashboard API.
package analytics

import "time"

// PurchaseRecord is a single purchase row as returned by the data store.
// Price carries the raw decimal text from storage; it is parsed defensively
// during aggregation so one malformed value never fails a request.
type PurchaseRecord struct {
	Price          string
	CreatedAt      time.Time
	IsTrial        bool
	DeviceID       string
	PurchaseDate   *time.Time
	ExpirationDate *time.Time
	ProductID      string
}

// DeviceRecord is a device row. Ref is the storage row id that session rows
// point at; DeviceID is the client-generated identifier.
type DeviceRecord struct {
	Ref       string
	DeviceID  string
	Name      string
	CreatedAt time.Time
}

// DeviceSnapshot is the minimal "when was this device last seen" projection
// used by the active-users series.
type DeviceSnapshot struct {
	DeviceID string
	LastSeen time.Time
}

// SessionRecord is a live-session row. Timestamps and coordinates are
// pointers because ingestion cannot guarantee them; degenerate rows are
// excluded locally rather than failing the request.
type SessionRecord struct {
	ID               string
	DeviceRef        string
	SessionStartedAt *time.Time
	LastHeartbeat    *time.Time
	CountryCode      string
	Region           string
	City             string
	Latitude         *float64
	Longitude        *float64
}

// TimeRange is a half-open [Start, End) instant range used for store queries.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

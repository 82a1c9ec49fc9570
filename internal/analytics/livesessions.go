package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Bounds for the live sessions feed.
const (
	DefaultLiveWindowSeconds = 600
	MinLiveWindowSeconds     = 30
	MaxLiveWindowSeconds     = 3600
	MaxLiveSessions          = 500
)

// LiveSession is one mappable session in the live feed. Sessions without
// usable coordinates are excluded from the feed.
type LiveSession struct {
	ID               string  `json:"id"`
	DeviceID         string  `json:"deviceId"`
	DeviceName       string  `json:"deviceName"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	CountryCode      string  `json:"countryCode,omitempty"`
	Region           string  `json:"region,omitempty"`
	City             string  `json:"city,omitempty"`
	LastHeartbeat    string  `json:"lastHeartbeat,omitempty"`
	SessionStartedAt string  `json:"sessionStartedAt,omitempty"`
}

// LiveSessionsFeed is the live sessions response document.
type LiveSessionsFeed struct {
	Sessions      []LiveSession `json:"sessions"`
	WindowSeconds int           `json:"windowSeconds"`
	Total         int           `json:"total"`
}

// LiveWindowSeconds parses the raw windowSeconds parameter, clamping it to
// [MinLiveWindowSeconds, MaxLiveWindowSeconds]. Blank or unparseable input
// yields the default.
func LiveWindowSeconds(raw string) int {
	if raw == "" {
		return DefaultLiveWindowSeconds
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultLiveWindowSeconds
	}
	if parsed < MinLiveWindowSeconds {
		return MinLiveWindowSeconds
	}
	if parsed > MaxLiveWindowSeconds {
		return MaxLiveWindowSeconds
	}
	return parsed
}

// LiveSessions returns the sessions with a heartbeat inside the requested
// window, newest first, capped at MaxLiveSessions. Sessions without finite
// coordinates are dropped. A device name lookup failure degrades to fallback
// names rather than failing the feed.
func (s *Service) LiveSessions(ctx context.Context, appID string, rawWindow string) (*LiveSessionsFeed, error) {
	if _, err := s.apps.GetByAppID(ctx, appID); err != nil {
		return nil, err
	}

	windowSeconds := LiveWindowSeconds(rawWindow)
	since := s.now().UTC().Add(-time.Duration(windowSeconds) * time.Second)

	rows, err := s.store.SessionsActiveSince(ctx, appID, since)
	if err != nil {
		s.metrics.RecordFetchFailure("upstream")
		return nil, fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
	}
	if len(rows) > MaxLiveSessions {
		rows = rows[:MaxLiveSessions]
	}

	refs := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.DeviceRef == "" {
			continue
		}
		if _, dup := seen[row.DeviceRef]; dup {
			continue
		}
		seen[row.DeviceRef] = struct{}{}
		refs = append(refs, row.DeviceRef)
	}

	deviceByRef := make(map[string]DeviceRecord, len(refs))
	if len(refs) > 0 {
		devices, err := s.store.DevicesByRef(ctx, appID, refs)
		if err != nil {
			s.logger.Warn("live sessions device lookup failed", "app_id", appID, "error", err)
		} else {
			for _, d := range devices {
				deviceByRef[d.Ref] = d
			}
		}
	}

	sessions := make([]LiveSession, 0, len(rows))
	for _, row := range rows {
		if row.Latitude == nil || row.Longitude == nil {
			continue
		}
		session := LiveSession{
			ID:          row.ID,
			DeviceID:    row.DeviceRef,
			DeviceName:  liveDeviceName(row, deviceByRef),
			Latitude:    *row.Latitude,
			Longitude:   *row.Longitude,
			CountryCode: row.CountryCode,
			Region:      row.Region,
			City:        row.City,
		}
		if row.LastHeartbeat != nil {
			session.LastHeartbeat = row.LastHeartbeat.UTC().Format(time.RFC3339)
		}
		if row.SessionStartedAt != nil {
			session.SessionStartedAt = row.SessionStartedAt.UTC().Format(time.RFC3339)
		}
		sessions = append(sessions, session)
	}

	s.metrics.ObserveLiveSessions(len(sessions))
	return &LiveSessionsFeed{
		Sessions:      sessions,
		WindowSeconds: windowSeconds,
		Total:         len(sessions),
	}, nil
}

// liveDeviceName picks a display name for a session's device: the registered
// name, then the hardware device id, then a suffix of the session's device
// ref, then "Unknown device".
func liveDeviceName(row SessionRecord, deviceByRef map[string]DeviceRecord) string {
	if d, ok := deviceByRef[row.DeviceRef]; ok {
		if d.Name != "" {
			return d.Name
		}
		if d.DeviceID != "" {
			return d.DeviceID
		}
	}
	if row.DeviceRef != "" {
		ref := row.DeviceRef
		if len(ref) > 6 {
			ref = ref[len(ref)-6:]
		}
		return "Device " + ref
	}
	return "Unknown device"
}

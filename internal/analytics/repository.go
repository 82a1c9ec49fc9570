package analytics

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store is the read surface of the analytics data store. Implementations
// return freshly-allocated slices the caller may keep; the core never writes
// through it.
type Store interface {
	// PurchasesCreatedBetween returns purchase rows created inside the range.
	PurchasesCreatedBetween(ctx context.Context, appID string, r TimeRange) ([]PurchaseRecord, error)

	// DevicesCreatedBetween returns device rows first registered inside the range.
	DevicesCreatedBetween(ctx context.Context, appID string, r TimeRange) ([]DeviceRecord, error)

	// DeviceSnapshotsLastSeenBetween returns last-seen snapshots for devices
	// seen inside the range.
	DeviceSnapshotsLastSeenBetween(ctx context.Context, appID string, r TimeRange) ([]DeviceSnapshot, error)

	// SessionsActiveSince returns session rows whose last heartbeat is at or
	// after the given instant.
	SessionsActiveSince(ctx context.Context, appID string, since time.Time) ([]SessionRecord, error)

	// SessionCountriesStartedBetween returns the country code of every session
	// started inside the range, one entry per session.
	SessionCountriesStartedBetween(ctx context.Context, appID string, r TimeRange) ([]string, error)

	// ConvertedTrialDevices returns the subset of deviceIDs that have any
	// non-trial purchase on record for the app, lifetime, not window-limited.
	ConvertedTrialDevices(ctx context.Context, appID string, deviceIDs []string) ([]string, error)

	// DevicesByRef resolves device rows by their storage row ids.
	DevicesByRef(ctx context.Context, appID string, refs []string) ([]DeviceRecord, error)
}

// InMemoryStore is an in-memory Store used in tests and development.
// Thread-safe via RWMutex.
type InMemoryStore struct {
	mu        sync.RWMutex
	purchases map[string][]PurchaseRecord // app id -> rows
	devices   map[string][]DeviceRecord
	snapshots map[string][]DeviceSnapshot
	sessions  map[string][]SessionRecord
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		purchases: make(map[string][]PurchaseRecord),
		devices:   make(map[string][]DeviceRecord),
		snapshots: make(map[string][]DeviceSnapshot),
		sessions:  make(map[string][]SessionRecord),
	}
}

// AddPurchase seeds a purchase row.
func (s *InMemoryStore) AddPurchase(appID string, p PurchaseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases[appID] = append(s.purchases[appID], p)
}

// AddDevice seeds a device row and its last-seen snapshot.
func (s *InMemoryStore) AddDevice(appID string, d DeviceRecord, lastSeen time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[appID] = append(s.devices[appID], d)
	if !lastSeen.IsZero() {
		s.snapshots[appID] = append(s.snapshots[appID], DeviceSnapshot{DeviceID: d.DeviceID, LastSeen: lastSeen})
	}
}

// AddSession seeds a session row.
func (s *InMemoryStore) AddSession(appID string, sess SessionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[appID] = append(s.sessions[appID], sess)
}

// PurchasesCreatedBetween returns purchase rows created inside the range.
func (s *InMemoryStore) PurchasesCreatedBetween(ctx context.Context, appID string, r TimeRange) ([]PurchaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []PurchaseRecord
	for _, p := range s.purchases[appID] {
		if r.Contains(p.CreatedAt) {
			out = append(out, p)
		}
	}
	return out, nil
}

// DevicesCreatedBetween returns device rows registered inside the range.
func (s *InMemoryStore) DevicesCreatedBetween(ctx context.Context, appID string, r TimeRange) ([]DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []DeviceRecord
	for _, d := range s.devices[appID] {
		if r.Contains(d.CreatedAt) {
			out = append(out, d)
		}
	}
	return out, nil
}

// DeviceSnapshotsLastSeenBetween returns snapshots last seen inside the range.
func (s *InMemoryStore) DeviceSnapshotsLastSeenBetween(ctx context.Context, appID string, r TimeRange) ([]DeviceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []DeviceSnapshot
	for _, snap := range s.snapshots[appID] {
		if r.Contains(snap.LastSeen) {
			out = append(out, snap)
		}
	}
	return out, nil
}

// SessionsActiveSince returns sessions with a heartbeat at or after since.
func (s *InMemoryStore) SessionsActiveSince(ctx context.Context, appID string, since time.Time) ([]SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []SessionRecord
	for _, sess := range s.sessions[appID] {
		if sess.LastHeartbeat != nil && !sess.LastHeartbeat.Before(since) {
			out = append(out, sess)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastHeartbeat.After(*out[j].LastHeartbeat)
	})
	return out, nil
}

// SessionCountriesStartedBetween returns country codes of sessions started
// inside the range.
func (s *InMemoryStore) SessionCountriesStartedBetween(ctx context.Context, appID string, r TimeRange) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, sess := range s.sessions[appID] {
		if sess.SessionStartedAt != nil && r.Contains(*sess.SessionStartedAt) {
			out = append(out, sess.CountryCode)
		}
	}
	return out, nil
}

// ConvertedTrialDevices returns the subset of deviceIDs holding any paid
// purchase, regardless of when it happened.
func (s *InMemoryStore) ConvertedTrialDevices(ctx context.Context, appID string, deviceIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[string]struct{}, len(deviceIDs))
	for _, id := range deviceIDs {
		wanted[id] = struct{}{}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, p := range s.purchases[appID] {
		if p.IsTrial || p.DeviceID == "" {
			continue
		}
		if _, ok := wanted[p.DeviceID]; !ok {
			continue
		}
		if _, dup := seen[p.DeviceID]; dup {
			continue
		}
		seen[p.DeviceID] = struct{}{}
		out = append(out, p.DeviceID)
	}
	return out, nil
}

// DevicesByRef resolves device rows by storage row id.
func (s *InMemoryStore) DevicesByRef(ctx context.Context, appID string, refs []string) ([]DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		wanted[ref] = struct{}{}
	}
	var out []DeviceRecord
	for _, d := range s.devices[appID] {
		if _, ok := wanted[d.Ref]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// PostgresStore implements Store against PostgreSQL. All range queries use
// half-open [start, end) bounds to match TimeRange semantics.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a PostgresStore.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// PurchasesCreatedBetween returns purchase rows created inside the range.
// The price column is selected as text so defective values reach the
// aggregator instead of failing the scan.
func (s *PostgresStore) PurchasesCreatedBetween(ctx context.Context, appID string, r TimeRange) ([]PurchaseRecord, error) {
	const query = `
		SELECT price::text, created_at, is_trial, device_id, purchase_date, expiration_date, product_id
		FROM purchases
		WHERE app_id = $1 AND created_at >= $2 AND created_at < $3
	`
	rows, err := s.db.QueryContext(ctx, query, appID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	var out []PurchaseRecord
	for rows.Next() {
		var (
			rec       PurchaseRecord
			price     sql.NullString
			deviceID  sql.NullString
			pDate     sql.NullTime
			eDate     sql.NullTime
			productID sql.NullString
		)
		if err := rows.Scan(&price, &rec.CreatedAt, &rec.IsTrial, &deviceID, &pDate, &eDate, &productID); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		rec.Price = price.String
		rec.DeviceID = deviceID.String
		rec.ProductID = productID.String
		if pDate.Valid {
			t := pDate.Time
			rec.PurchaseDate = &t
		}
		if eDate.Valid {
			t := eDate.Time
			rec.ExpirationDate = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DevicesCreatedBetween returns device rows registered inside the range.
func (s *PostgresStore) DevicesCreatedBetween(ctx context.Context, appID string, r TimeRange) ([]DeviceRecord, error) {
	const query = `
		SELECT id, device_id, COALESCE(name, ''), created_at
		FROM devices
		WHERE app_id = $1 AND created_at >= $2 AND created_at < $3
	`
	rows, err := s.db.QueryContext(ctx, query, appID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("query devices: %w", err)
	}
	defer rows.Close()
	return scanDevices(rows)
}

// DeviceSnapshotsLastSeenBetween returns last-seen snapshots inside the range.
func (s *PostgresStore) DeviceSnapshotsLastSeenBetween(ctx context.Context, appID string, r TimeRange) ([]DeviceSnapshot, error) {
	const query = `
		SELECT device_id, last_seen_at
		FROM devices
		WHERE app_id = $1 AND last_seen_at >= $2 AND last_seen_at < $3
	`
	rows, err := s.db.QueryContext(ctx, query, appID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("query device snapshots: %w", err)
	}
	defer rows.Close()

	var out []DeviceSnapshot
	for rows.Next() {
		var snap DeviceSnapshot
		if err := rows.Scan(&snap.DeviceID, &snap.LastSeen); err != nil {
			return nil, fmt.Errorf("scan device snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// SessionsActiveSince returns sessions with a heartbeat at or after since,
// most recent first.
func (s *PostgresStore) SessionsActiveSince(ctx context.Context, appID string, since time.Time) ([]SessionRecord, error) {
	const query = `
		SELECT id, device_id, session_started_at, last_heartbeat,
		       COALESCE(country_code, ''), COALESCE(region, ''), COALESCE(city, ''),
		       latitude, longitude
		FROM active_sessions
		WHERE app_id = $1 AND last_heartbeat >= $2
		ORDER BY last_heartbeat DESC
	`
	rows, err := s.db.QueryContext(ctx, query, appID, since)
	if err != nil {
		return nil, fmt.Errorf("query active sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var (
			rec       SessionRecord
			deviceRef sql.NullString
			started   sql.NullTime
			heartbeat sql.NullTime
			lat, lon  sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &deviceRef, &started, &heartbeat,
			&rec.CountryCode, &rec.Region, &rec.City, &lat, &lon); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.DeviceRef = deviceRef.String
		if started.Valid {
			t := started.Time
			rec.SessionStartedAt = &t
		}
		if heartbeat.Valid {
			t := heartbeat.Time
			rec.LastHeartbeat = &t
		}
		if lat.Valid {
			v := lat.Float64
			rec.Latitude = &v
		}
		if lon.Valid {
			v := lon.Float64
			rec.Longitude = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SessionCountriesStartedBetween returns the country code of each session
// started inside the range.
func (s *PostgresStore) SessionCountriesStartedBetween(ctx context.Context, appID string, r TimeRange) ([]string, error) {
	const query = `
		SELECT COALESCE(country_code, '')
		FROM active_sessions
		WHERE app_id = $1 AND session_started_at >= $2 AND session_started_at < $3
	`
	rows, err := s.db.QueryContext(ctx, query, appID, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("query session countries: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan session country: %w", err)
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

// ConvertedTrialDevices returns the subset of deviceIDs with any paid
// purchase on record for the app, lifetime.
func (s *PostgresStore) ConvertedTrialDevices(ctx context.Context, appID string, deviceIDs []string) ([]string, error) {
	if len(deviceIDs) == 0 {
		return nil, nil
	}
	const query = `
		SELECT DISTINCT device_id
		FROM purchases
		WHERE app_id = $1 AND is_trial = false AND device_id = ANY($2)
	`
	rows, err := s.db.QueryContext(ctx, query, appID, pq.Array(deviceIDs))
	if err != nil {
		return nil, fmt.Errorf("query converted trial devices: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan converted device: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// DevicesByRef resolves device rows by storage row id.
func (s *PostgresStore) DevicesByRef(ctx context.Context, appID string, refs []string) ([]DeviceRecord, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	const query = `
		SELECT id, device_id, COALESCE(name, ''), created_at
		FROM devices
		WHERE app_id = $1 AND id = ANY($2)
	`
	rows, err := s.db.QueryContext(ctx, query, appID, pq.Array(refs))
	if err != nil {
		return nil, fmt.Errorf("query devices by ref: %w", err)
	}
	defer rows.Close()
	return scanDevices(rows)
}

func scanDevices(rows *sql.Rows) ([]DeviceRecord, error) {
	var out []DeviceRecord
	for rows.Next() {
		var rec DeviceRecord
		if err := rows.Scan(&rec.Ref, &rec.DeviceID, &rec.Name, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

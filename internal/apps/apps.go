// Package apps manages the registered applications analytics is reported for.
package apps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// ErrAppNotFound is returned when no app matches the requested app id.
var ErrAppNotFound = errors.New("app not found")

// App is a registered application.
type App struct {
	ID    string `json:"id"`
	AppID string `json:"app_id"`
	Name  string `json:"name"`
}

// Repository resolves apps by their public app id.
type Repository interface {
	GetByAppID(ctx context.Context, appID string) (*App, error)
}

// PostgresRepository implements Repository against PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a PostgresRepository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByAppID returns the app with the given public app id, or ErrAppNotFound.
func (r *PostgresRepository) GetByAppID(ctx context.Context, appID string) (*App, error) {
	const query = `SELECT id, app_id, COALESCE(name, '') FROM apps WHERE app_id = $1`
	var app App
	err := r.db.QueryRowContext(ctx, query, appID).Scan(&app.ID, &app.AppID, &app.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query app: %w", err)
	}
	return &app, nil
}

// InMemoryRepository is an in-memory Repository used in tests and development.
type InMemoryRepository struct {
	mu   sync.RWMutex
	apps map[string]App // keyed by public app id
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{apps: make(map[string]App)}
}

// Add registers or replaces an app.
func (r *InMemoryRepository) Add(app App) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[app.AppID] = app
}

// GetByAppID returns the app with the given public app id, or ErrAppNotFound.
func (r *InMemoryRepository) GetByAppID(ctx context.Context, appID string) (*App, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[appID]
	if !ok {
		return nil, ErrAppNotFound
	}
	return &app, nil
}

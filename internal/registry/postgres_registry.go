package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ServerStore abstracts the DB queries for testability.
type ServerStore interface {
	LookupServer(ctx context.Context, name string) (*serverRow, error)
	ListServers(ctx context.Context) ([]serverRow, error)
}

type serverRow struct {
	Name string
	URL  string
}

// sqlServerStore is the real implementation using *sql.DB.
type sqlServerStore struct {
	db *sql.DB
}

func (s *sqlServerStore) LookupServer(ctx context.Context, name string) (*serverRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT name, url
		FROM mcp_servers
		WHERE name = $1 AND enabled
	`, name)

	var r serverRow
	if err := row.Scan(&r.Name, &r.URL); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *sqlServerStore) ListServers(ctx context.Context) ([]serverRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, url
		FROM mcp_servers
		WHERE enabled
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []serverRow
	for rows.Next() {
		var r serverRow
		if err := rows.Scan(&r.Name, &r.URL); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PostgresRegistry resolves servers from the mcp_servers table with a
// stale-while-revalidate TTL cache in front.
type PostgresRegistry struct {
	store  ServerStore
	cache  *serverCache
	logger *zap.Logger
}

// PostgresRegistryConfig configures the PostgresRegistry.
type PostgresRegistryConfig struct {
	DB       *sql.DB
	CacheTTL time.Duration
	Logger   *zap.Logger
}

func NewPostgresRegistry(cfg PostgresRegistryConfig) *PostgresRegistry {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 60 * time.Second
	}
	return &PostgresRegistry{
		store:  &sqlServerStore{db: cfg.DB},
		cache:  newServerCache(ttl),
		logger: cfg.Logger,
	}
}

// newPostgresRegistryWithStore creates a registry with a custom store (for testing).
func newPostgresRegistryWithStore(store ServerStore, cacheTTL time.Duration, logger *zap.Logger) *PostgresRegistry {
	if cacheTTL == 0 {
		cacheTTL = 60 * time.Second
	}
	return &PostgresRegistry{
		store:  store,
		cache:  newServerCache(cacheTTL),
		logger: logger,
	}
}

func (r *PostgresRegistry) GetServer(ctx context.Context, name string) (*ServerEntry, error) {
	res := r.cache.get(name)
	if res.Hit {
		if res.NeedsRefresh {
			go r.refreshInBackground(name)
		}
		return res.Entry, nil
	}

	entry, err := r.fetchFromDB(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.cache.set(name, nil)
			return nil, nil
		}
		return nil, fmt.Errorf("GetServer: %w", err)
	}

	r.cache.set(name, entry)
	return entry, nil
}

func (r *PostgresRegistry) ListServers(ctx context.Context) ([]ServerEntry, error) {
	rows, err := r.store.ListServers(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListServers: %w", err)
	}
	entries := make([]ServerEntry, len(rows))
	for i, row := range rows {
		entries[i] = ServerEntry{Name: row.Name, URL: row.URL}
	}
	return entries, nil
}

func (r *PostgresRegistry) fetchFromDB(ctx context.Context, name string) (*ServerEntry, error) {
	row, err := r.store.LookupServer(ctx, name)
	if err != nil {
		return nil, err
	}
	return &ServerEntry{Name: row.Name, URL: row.URL}, nil
}

func (r *PostgresRegistry) refreshInBackground(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry, err := r.fetchFromDB(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.cache.set(name, nil)
			return
		}
		r.logger.Warn("background registry refresh failed",
			zap.String("server", name),
			zap.Error(err),
		)
		return
	}
	r.cache.set(name, entry)
}

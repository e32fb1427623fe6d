package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/ports"
)

// SQLiteAliasStore persists promoted aliases in the learned_aliases table.
type SQLiteAliasStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteAliasStore wraps an opened, migrated database.
func NewSQLiteAliasStore(db *sql.DB) *SQLiteAliasStore {
	return &SQLiteAliasStore{db: db}
}

// LoadAliases returns every learned alias.
func (s *SQLiteAliasStore) LoadAliases(ctx context.Context) ([]domain.LearnedAlias, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("alias store unavailable")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT alias, kind, canonical, support, version FROM learned_aliases ORDER BY alias`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.LearnedAlias
	for rows.Next() {
		var alias domain.LearnedAlias
		var kind string
		if err := rows.Scan(&alias.Alias, &kind, &alias.Canonical, &alias.Support, &alias.Version); err != nil {
			return nil, err
		}
		alias.Kind = domain.EntryKind(kind)
		out = append(out, alias)
	}
	return out, rows.Err()
}

// SaveAlias inserts or refreshes a learned alias.
func (s *SQLiteAliasStore) SaveAlias(ctx context.Context, alias domain.LearnedAlias) error {
	if s == nil || s.db == nil {
		return errors.New("alias store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO learned_aliases
		(alias, kind, canonical, support, version, promoted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(alias, kind) DO UPDATE SET
			canonical = excluded.canonical,
			support = excluded.support,
			version = excluded.version,
			promoted_at = excluded.promoted_at`,
		alias.Alias,
		string(alias.Kind),
		alias.Canonical,
		alias.Support,
		int64(alias.Version),
		time.Now().UTC().Format(domain.TimestampFormat),
	)
	return err
}

var _ ports.AliasRepository = (*SQLiteAliasStore)(nil)

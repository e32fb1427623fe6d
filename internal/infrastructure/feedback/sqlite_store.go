// Package feedback records executed interactions and mines them for alias
// promotions.
package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/nixsay/internal/domain"
	"github.com/doeshing/nixsay/internal/infrastructure/storage"
	"github.com/doeshing/nixsay/internal/ports"
)

// SQLiteStore persists feedback in the shared SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore wraps an opened, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Append inserts a new record. Existing rows are never updated.
func (s *SQLiteStore) Append(ctx context.Context, record domain.FeedbackRecord) error {
	if s == nil || s.db == nil {
		return domain.ErrStorageUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO feedback
		(id, session_id, timestamp, input, action, operation, target, raw_target, resolution,
		 command, tier, success, exit_code, duration_ms, retries)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.SessionID,
		record.Timestamp.UTC().Format(domain.TimestampFormat),
		record.Input,
		string(record.Action),
		record.Operation,
		record.Target,
		record.RawTarget,
		string(record.Resolution),
		record.Command,
		int(record.Tier),
		storage.BoolToInt(record.Success),
		record.ExitCode,
		record.DurationMS,
		record.Retries,
	)
	return err
}

// Records returns feedback newest first (limit/search optional).
func (s *SQLiteStore) Records(ctx context.Context, limit int, search string) ([]domain.FeedbackRecord, error) {
	if s == nil || s.db == nil {
		return nil, domain.ErrStorageUnavailable
	}
	builder := strings.Builder{}
	builder.WriteString(`SELECT id, session_id, timestamp, input, action, operation, target, raw_target,
		resolution, command, tier, success, exit_code, duration_ms, retries FROM feedback`)
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE input LIKE ? OR command LIKE ? OR target LIKE ?")
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}
	builder.WriteString(" ORDER BY seq DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.FeedbackRecord
	for rows.Next() {
		var rec domain.FeedbackRecord
		var ts, action, resolution string
		var tier, success int
		if err := rows.Scan(&rec.ID, &rec.SessionID, &ts, &rec.Input, &action, &rec.Operation, &rec.Target,
			&rec.RawTarget, &resolution, &rec.Command, &tier, &success, &rec.ExitCode, &rec.DurationMS, &rec.Retries); err != nil {
			return nil, err
		}
		if t, err := time.Parse(domain.TimestampFormat, ts); err == nil {
			rec.Timestamp = t
		}
		rec.Action = domain.Action(action)
		rec.Resolution = domain.ResolutionKind(resolution)
		rec.Tier = domain.RiskTier(tier)
		rec.Success = success == 1
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecordReader is the read side of the feedback log.
type RecordReader interface {
	Records(ctx context.Context, limit int, search string) ([]domain.FeedbackRecord, error)
}

// ExportJSON writes every record to a jsonl file, oldest first.
func ExportJSON(ctx context.Context, repo RecordReader, dest string) (int, error) {
	if repo == nil {
		return 0, errors.New("no feedback repository")
	}
	records, err := repo.Records(ctx, 0, "")
	if err != nil {
		return 0, err
	}
	file, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	for i := len(records) - 1; i >= 0; i-- {
		if err := enc.Encode(records[i]); err != nil {
			return 0, err
		}
	}
	return len(records), nil
}

var _ ports.FeedbackRepository = (*SQLiteStore)(nil)

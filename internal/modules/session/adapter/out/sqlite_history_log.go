package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"everest/internal/modules/session/domain"
	apperrors "everest/internal/platform/errors"

	_ "modernc.org/sqlite"
)

// Fixed-width so archived_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteHistoryLog struct {
	db *sql.DB
}

func NewSQLiteHistoryLog(dbPath string) (*SQLiteHistoryLog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteHistoryLog{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteHistoryLog) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteHistoryLog) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS session_history (
  id TEXT PRIMARY KEY,
  archived_at TEXT NOT NULL,
  user_name TEXT NOT NULL,
  track_name TEXT NOT NULL,
  started_at TEXT,
  finished_at TEXT,
  lap_count INTEGER NOT NULL,
  total_distance_km REAL NOT NULL,
  total_ascent_m REAL NOT NULL,
  average_lap_ms REAL NOT NULL,
  laps_json TEXT NOT NULL,
  pauses_json TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create session_history table: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryLog) Append(ctx context.Context, record domain.ArchivedSession) error {
	if record.ID == "" {
		return fmt.Errorf("%w: history record id is required", apperrors.ErrInvalidInput)
	}
	laps, err := json.Marshal(nonNilLaps(record.Laps))
	if err != nil {
		return fmt.Errorf("marshal laps: %w", err)
	}
	pauses, err := json.Marshal(nonNilPauses(record.Pauses))
	if err != nil {
		return fmt.Errorf("marshal pauses: %w", err)
	}
	const stmt = `
INSERT INTO session_history (id, archived_at, user_name, track_name, started_at, finished_at, lap_count, total_distance_km, total_ascent_m, average_lap_ms, laps_json, pauses_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err = s.db.ExecContext(ctx, stmt,
		record.ID,
		record.ArchivedAt.UTC().Format(timeLayout),
		record.UserName,
		record.TrackName,
		formatOptionalTime(record.StartedAt),
		formatOptionalTime(record.FinishedAt),
		len(record.Laps),
		record.TotalDistanceKm,
		record.TotalAscentM,
		record.AverageLapMs,
		string(laps),
		string(pauses),
	)
	if err != nil {
		return fmt.Errorf("append history record: %w", err)
	}
	return nil
}

// List returns records newest first.
func (s *SQLiteHistoryLog) List(ctx context.Context) ([]domain.ArchivedSession, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, archived_at, user_name, track_name, started_at, finished_at, total_distance_km, total_ascent_m, average_lap_ms, laps_json, pauses_json
FROM session_history
ORDER BY archived_at DESC, id;
`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	records := []domain.ArchivedSession{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

func (s *SQLiteHistoryLog) Get(ctx context.Context, id string) (domain.ArchivedSession, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, archived_at, user_name, track_name, started_at, finished_at, total_distance_km, total_ascent_m, average_lap_ms, laps_json, pauses_json
FROM session_history
WHERE id = ?;
`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ArchivedSession{}, fmt.Errorf("%w: history record %s", apperrors.ErrNotFound, id)
	}
	return record, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.ArchivedSession, error) {
	var (
		record                domain.ArchivedSession
		archivedAt            string
		startedAt, finishedAt sql.NullString
		lapsJSON, pausesJSON  string
	)
	if err := row.Scan(
		&record.ID,
		&archivedAt,
		&record.UserName,
		&record.TrackName,
		&startedAt,
		&finishedAt,
		&record.TotalDistanceKm,
		&record.TotalAscentM,
		&record.AverageLapMs,
		&lapsJSON,
		&pausesJSON,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ArchivedSession{}, err
		}
		return domain.ArchivedSession{}, fmt.Errorf("scan history record: %w", err)
	}
	at, err := time.Parse(timeLayout, archivedAt)
	if err != nil {
		return domain.ArchivedSession{}, fmt.Errorf("parse archived_at: %w", err)
	}
	record.ArchivedAt = at
	if record.StartedAt, err = parseOptionalTime(startedAt); err != nil {
		return domain.ArchivedSession{}, fmt.Errorf("parse started_at: %w", err)
	}
	if record.FinishedAt, err = parseOptionalTime(finishedAt); err != nil {
		return domain.ArchivedSession{}, fmt.Errorf("parse finished_at: %w", err)
	}
	if err := json.Unmarshal([]byte(lapsJSON), &record.Laps); err != nil {
		return domain.ArchivedSession{}, fmt.Errorf("decode laps: %w", err)
	}
	if err := json.Unmarshal([]byte(pausesJSON), &record.Pauses); err != nil {
		return domain.ArchivedSession{}, fmt.Errorf("decode pauses: %w", err)
	}
	return record, nil
}

func formatOptionalTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func parseOptionalTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nonNilLaps(laps []domain.Lap) []domain.Lap {
	if laps == nil {
		return []domain.Lap{}
	}
	return laps
}

func nonNilPauses(pauses []domain.Pause) []domain.Pause {
	if pauses == nil {
		return []domain.Pause{}
	}
	return pauses
}

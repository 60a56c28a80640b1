package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cbodonnell/lobbyhost/pkg/repositories/models"
	"github.com/cbodonnell/lobbyhost/pkg/session"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string, migrations string) (Repository, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	// a single connection keeps :memory: databases alive across queries
	db.SetMaxOpenConns(1)

	scripts, err := readMigrations(migrations)
	if err != nil {
		db.Close()
		return nil, err
	}
	for i, script := range scripts {
		if _, err := db.ExecContext(ctx, script); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute migration %d: %v", i+1, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveSession(ctx context.Context, record *models.SessionRecord) error {
	participants, err := json.Marshal(record.Participants)
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %v", err)
	}
	var endedAt sql.NullInt64
	if record.EndedAt != nil {
		endedAt = sql.NullInt64{Int64: record.EndedAt.UnixMilli(), Valid: true}
	}

	q := `
	INSERT INTO sessions (id, join_code, mode, participants, started_at, ended_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET participants = excluded.participants, ended_at = excluded.ended_at;
	`
	_, err = r.db.ExecContext(ctx, q, record.ID.String(), record.JoinCode, string(record.Mode), string(participants), record.StartedAt.UnixMilli(), endedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadSession(ctx context.Context, id uuid.UUID) (*models.SessionRecord, error) {
	q := `
	SELECT join_code, mode, participants, started_at, ended_at FROM sessions WHERE id = ?;
	`
	var (
		joinCode, mode, participants string
		startedAt                    int64
		endedAt                      sql.NullInt64
	)
	if err := r.db.QueryRowContext(ctx, q, id.String()).Scan(&joinCode, &mode, &participants, &startedAt, &endedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan session: %v", err)
	}

	record := &models.SessionRecord{
		ID:        id,
		JoinCode:  joinCode,
		Mode:      session.ModeID(mode),
		StartedAt: time.UnixMilli(startedAt),
	}
	if err := json.Unmarshal([]byte(participants), &record.Participants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal participants: %v", err)
	}
	if endedAt.Valid {
		t := time.UnixMilli(endedAt.Int64)
		record.EndedAt = &t
	}
	return record, nil
}

func (r *SQLiteRepository) AppendLogEntries(ctx context.Context, sessionID uuid.UUID, entries []models.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	var next int
	q := `SELECT COALESCE(MAX(sequence) + 1, 0) FROM session_logs WHERE session_id = ?;`
	if err := tx.QueryRowContext(ctx, q, sessionID.String()).Scan(&next); err != nil {
		return fmt.Errorf("failed to read log sequence: %v", err)
	}

	q = `
	INSERT INTO session_logs (session_id, sequence, timestamp, severity, text)
	VALUES (?, ?, ?, ?, ?);
	`
	for i, entry := range entries {
		if _, err := tx.ExecContext(ctx, q, sessionID.String(), next+i, entry.Timestamp, entry.Severity, entry.Text); err != nil {
			return fmt.Errorf("failed to insert log entry: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadLogEntries(ctx context.Context, sessionID uuid.UUID) ([]models.LogEntry, error) {
	q := `
	SELECT sequence, timestamp, severity, text FROM session_logs WHERE session_id = ? ORDER BY sequence;
	`
	rows, err := r.db.QueryContext(ctx, q, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %v", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		entry := models.LogEntry{SessionID: sessionID}
		if err := rows.Scan(&entry.Sequence, &entry.Timestamp, &entry.Severity, &entry.Text); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %v", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log entries: %v", err)
	}
	return entries, nil
}

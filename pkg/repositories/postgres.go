package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cbodonnell/lobbyhost/pkg/log"
	"github.com/cbodonnell/lobbyhost/pkg/repositories/models"
	"github.com/cbodonnell/lobbyhost/pkg/session"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	// pgx.Conn is not safe for concurrent use
	lock sync.Mutex
	conn *pgx.Conn
}

// NewPostgresRepository connects to the database and applies the migrations
// in the given directory. The caller is responsible for calling Close() on
// the repository.
func NewPostgresRepository(ctx context.Context, connStr string, migrations string) (Repository, error) {
	conn, err := connectDb(ctx, connStr)
	if err != nil {
		return nil, err
	}

	scripts, err := readMigrations(migrations)
	if err != nil {
		conn.Close(ctx)
		return nil, err
	}
	for i, script := range scripts {
		if _, err := conn.Exec(ctx, script); err != nil {
			conn.Close(ctx)
			return nil, fmt.Errorf("failed to execute migration %d: %v", i+1, err)
		}
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func connectDb(ctx context.Context, connStr string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	var username string
	var database string
	err = conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("unable to query database: %v", err)
	}

	log.Info("Connected to %s as %s", database, username)

	return conn, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveSession(ctx context.Context, record *models.SessionRecord) error {
	participants, err := json.Marshal(record.Participants)
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %v", err)
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	q := `
	INSERT INTO sessions (id, join_code, mode, participants, started_at, ended_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET participants = $4, ended_at = $6;
	`
	_, err = r.conn.Exec(ctx, q, record.ID, record.JoinCode, string(record.Mode), participants, record.StartedAt, record.EndedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %v", err)
	}
	return nil
}

func (r *PostgresRepository) LoadSession(ctx context.Context, id uuid.UUID) (*models.SessionRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	q := `
	SELECT join_code, mode, participants, started_at, ended_at FROM sessions WHERE id = $1;
	`
	var (
		joinCode, mode string
		participants   []byte
		startedAt      time.Time
		endedAt        *time.Time
	)
	if err := r.conn.QueryRow(ctx, q, id).Scan(&joinCode, &mode, &participants, &startedAt, &endedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan session: %v", err)
	}

	record := &models.SessionRecord{
		ID:        id,
		JoinCode:  joinCode,
		Mode:      session.ModeID(mode),
		StartedAt: startedAt,
		EndedAt:   endedAt,
	}
	if err := json.Unmarshal(participants, &record.Participants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal participants: %v", err)
	}
	return record, nil
}

func (r *PostgresRepository) AppendLogEntries(ctx context.Context, sessionID uuid.UUID, entries []models.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	var next int
	q := `SELECT COALESCE(MAX(sequence) + 1, 0) FROM session_logs WHERE session_id = $1;`
	if err := tx.QueryRow(ctx, q, sessionID).Scan(&next); err != nil {
		return fmt.Errorf("failed to read log sequence: %v", err)
	}

	batch := &pgx.Batch{}
	for i, entry := range entries {
		batch.Queue(`
		INSERT INTO session_logs (session_id, sequence, timestamp, severity, text)
		VALUES ($1, $2, $3, $4, $5);
		`, sessionID, next+i, entry.Timestamp, entry.Severity, entry.Text)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert log entries: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (r *PostgresRepository) LoadLogEntries(ctx context.Context, sessionID uuid.UUID) ([]models.LogEntry, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	q := `
	SELECT sequence, timestamp, severity, text FROM session_logs WHERE session_id = $1 ORDER BY sequence;
	`
	rows, err := r.conn.Query(ctx, q, sessionID)
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

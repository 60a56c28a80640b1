package repositories

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cbodonnell/lobbyhost/pkg/repositories/models"
	"github.com/google/uuid"
)

type Repository interface {
	Close(ctx context.Context) error
	// SaveSession inserts or updates a session record.
	SaveSession(ctx context.Context, record *models.SessionRecord) error
	LoadSession(ctx context.Context, id uuid.UUID) (*models.SessionRecord, error)
	// AppendLogEntries adds entries after the ones already stored for the session.
	AppendLogEntries(ctx context.Context, sessionID uuid.UUID, entries []models.LogEntry) error
	LoadLogEntries(ctx context.Context, sessionID uuid.UUID) ([]models.LogEntry, error)
}

// NewRepository picks the implementation from the URL scheme:
// sqlite://<path> or postgres[ql]://...
func NewRepository(ctx context.Context, url string, migrations string) (Repository, error) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return NewSQLiteRepository(ctx, strings.TrimPrefix(url, "sqlite://"), filepath.Join(migrations, "sqlite"))
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgresRepository(ctx, url, filepath.Join(migrations, "postgres"))
	default:
		return nil, fmt.Errorf("unsupported database url %q", url)
	}
}

// readMigrations returns the contents of every file in dir, ordered by name.
func readMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	migrations := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		migration, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", path, err)
		}
		migrations = append(migrations, string(migration))
	}
	return migrations, nil
}

package models

import (
	"time"

	"github.com/cbodonnell/lobbyhost/pkg/session"
	"github.com/google/uuid"
)

// SessionRecord is one hosted game session, from start to exit.
type SessionRecord struct {
	ID           uuid.UUID             `json:"id"`
	JoinCode     string                `json:"join_code"`
	Mode         session.ModeID        `json:"mode"`
	Participants []session.Participant `json:"participants"`
	StartedAt    time.Time             `json:"started_at"`
	EndedAt      *time.Time            `json:"ended_at,omitempty"`
}

// LogEntry is one persisted line of a session log.
type LogEntry struct {
	SessionID uuid.UUID `json:"session_id"`
	Sequence  int       `json:"sequence"`
	Timestamp int64     `json:"timestamp"`
	Severity  string    `json:"severity"`
	Text      string    `json:"text"`
}

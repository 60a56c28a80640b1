package session

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
)

// MaxDisplayNameBytes is the wire limit for a participant display name.
const MaxDisplayNameBytes = 32

// HostClientID is the connection id of the hosting participant.
const HostClientID uint64 = 0

// ModeID identifies a registered game mode.
type ModeID string

const (
	// ModeNone is the unset mode. A session cannot start with it.
	ModeNone   ModeID = ""
	ModeSample ModeID = "sample"
)

func (m ModeID) String() string {
	if m == ModeNone {
		return "None"
	}
	return string(m)
}

// Participant is one connected player slot.
type Participant struct {
	ClientID    uint64 `json:"clientID"`
	DisplayName string `json:"displayName"`
}

// DefaultDisplayName is the name given to a participant when it connects.
func DefaultDisplayName(clientID uint64) string {
	return fmt.Sprintf("Player%d", clientID)
}

// FallbackDisplayName is used for an actor whose owner is missing from the in-game roster.
func FallbackDisplayName(clientID uint64) string {
	return fmt.Sprintf("Player %d", clientID)
}

// ValidateDisplayName rejects empty names, invalid UTF-8 and names over
// MaxDisplayNameBytes.
func ValidateDisplayName(name string) error {
	if !utf8.ValidString(name) {
		return apperrors.New(apperrors.CodeInvalidArgument, "display name must be valid UTF-8")
	}
	if strings.TrimSpace(name) == "" {
		return apperrors.New(apperrors.CodeInvalidArgument, "display name must not be empty")
	}
	if len(name) > MaxDisplayNameBytes {
		return apperrors.New(apperrors.CodeInvalidArgument, fmt.Sprintf("display name must be at most %d bytes", MaxDisplayNameBytes))
	}
	return nil
}

// Config is the replicated session configuration.
type Config struct {
	SelectedMode    ModeID `json:"selectedMode"`
	MaxParticipants int    `json:"maxParticipants"`
	JoinCode        string `json:"joinCode"`
	IsHost          bool   `json:"isHost"`
	Started         bool   `json:"started"`
}

// CopyRoster returns a detached copy of roster.
func CopyRoster(roster []Participant) []Participant {
	if roster == nil {
		return nil
	}
	out := make([]Participant, len(roster))
	copy(out, roster)
	return out
}

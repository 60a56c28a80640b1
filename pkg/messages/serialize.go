package messages

import (
	"bytes"
	"fmt"
	"io"

	messagefb "github.com/cbodonnell/lobbyhost/flatbuffers/message"
	sessionfb "github.com/cbodonnell/lobbyhost/flatbuffers/session"
	"github.com/cbodonnell/lobbyhost/pkg/gamestate"
	"github.com/cbodonnell/lobbyhost/pkg/session"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"
)

func SerializeMessage(m *Message) ([]byte, error) {
	b, err := SerializeMessageFlatbuffer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %v", err)
	}

	compressed := bytes.NewBuffer(nil)
	compWriter, err := zstd.NewWriter(compressed, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %v", err)
	}
	if _, err := compWriter.Write(b); err != nil {
		return nil, fmt.Errorf("failed to compress message: %v", err)
	}
	if err := compWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zstd writer: %v", err)
	}

	return compressed.Bytes(), nil
}

func DeserializeMessage(data []byte) (*Message, error) {
	compReader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer compReader.Close()
	b, err := io.ReadAll(compReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read decompressed message: %v", err)
	}

	message, err := DeserializeMessageFlatbuffer(b)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return message, nil
}

func SerializeMessageFlatbuffer(m *Message) ([]byte, error) {
	builder := flatbuffers.NewBuilder(0)

	payload := builder.CreateByteVector(m.Payload)

	messagefb.MessageStart(builder)
	messagefb.MessageAddClientId(builder, m.ClientID)
	messagefb.MessageAddType(builder, byte(m.Type))
	messagefb.MessageAddPayload(builder, payload)
	messageOffset := messagefb.MessageEnd(builder)
	builder.Finish(messageOffset)

	return builder.FinishedBytes(), nil
}

func DeserializeMessageFlatbuffer(b []byte) (m *Message, err error) {
	// malformed buffers make the generated accessors index out of range
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed message flatbuffer: %v", r)
		}
	}()
	fb := messagefb.GetRootAsMessage(b, 0)
	payload := fb.PayloadBytes()
	m = &Message{
		ClientID: fb.ClientId(),
		Type:     MessageType(fb.Type()),
	}
	if len(payload) > 0 {
		m.Payload = append([]byte(nil), payload...)
	}
	return m, nil
}

// SerializeSessionState encodes a session snapshot as a SessionState flatbuffer.
func SerializeSessionState(state *SessionState) ([]byte, error) {
	builder := flatbuffers.NewBuilder(0)

	participantVector := buildParticipants(builder, state.Participants, sessionfb.SessionStateStartParticipantsVector)
	inGameVector := buildParticipants(builder, state.InGameParticipants, sessionfb.SessionStateStartInGameParticipantsVector)

	mode := builder.CreateString(string(state.Config.SelectedMode))
	joinCode := builder.CreateString(state.Config.JoinCode)

	sessionfb.SessionStateStart(builder)
	sessionfb.SessionStateAddTimestamp(builder, state.Timestamp)
	sessionfb.SessionStateAddSelectedMode(builder, mode)
	sessionfb.SessionStateAddMaxParticipants(builder, int32(state.Config.MaxParticipants))
	sessionfb.SessionStateAddJoinCode(builder, joinCode)
	sessionfb.SessionStateAddStarted(builder, state.Config.Started)
	sessionfb.SessionStateAddPhase(builder, byte(state.Game.Phase))
	sessionfb.SessionStateAddCountdownTimer(builder, state.Game.CountdownTimer)
	sessionfb.SessionStateAddGameTimer(builder, state.Game.GameTimer)
	sessionfb.SessionStateAddParticipants(builder, participantVector)
	sessionfb.SessionStateAddInGameParticipants(builder, inGameVector)
	builder.Finish(sessionfb.SessionStateEnd(builder))

	return builder.FinishedBytes(), nil
}

// DeserializeSessionState decodes a SessionState flatbuffer. IsHost is never
// carried on the wire and is left false.
func DeserializeSessionState(b []byte) (state *SessionState, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed session state flatbuffer: %v", r)
		}
	}()
	fb := sessionfb.GetRootAsSessionState(b, 0)
	state = &SessionState{
		Timestamp: fb.Timestamp(),
		Config: session.Config{
			SelectedMode:    session.ModeID(fb.SelectedMode()),
			MaxParticipants: int(fb.MaxParticipants()),
			JoinCode:        string(fb.JoinCode()),
			Started:         fb.Started(),
		},
		Game: gamestate.Snapshot{
			Phase:          gamestate.Phase(fb.Phase()),
			CountdownTimer: fb.CountdownTimer(),
			GameTimer:      fb.GameTimer(),
		},
	}
	if state.Participants, err = readParticipants(fb.ParticipantsLength(), fb.Participants); err != nil {
		return nil, err
	}
	if state.InGameParticipants, err = readParticipants(fb.InGameParticipantsLength(), fb.InGameParticipants); err != nil {
		return nil, err
	}
	return state, nil
}

func buildParticipants(builder *flatbuffers.Builder, roster []session.Participant, start func(*flatbuffers.Builder, int) flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	offsets := make([]flatbuffers.UOffsetT, 0, len(roster))
	for _, p := range roster {
		name := builder.CreateString(p.DisplayName)
		sessionfb.ParticipantStart(builder)
		sessionfb.ParticipantAddClientId(builder, p.ClientID)
		sessionfb.ParticipantAddDisplayName(builder, name)
		offsets = append(offsets, sessionfb.ParticipantEnd(builder))
	}
	start(builder, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	return builder.EndVector(len(offsets))
}

func readParticipants(n int, at func(*sessionfb.Participant, int) bool) ([]session.Participant, error) {
	roster := make([]session.Participant, 0, n)
	for i := 0; i < n; i++ {
		p := &sessionfb.Participant{}
		if !at(p, i) {
			return nil, fmt.Errorf("failed to get participant at index %d", i)
		}
		roster = append(roster, session.Participant{
			ClientID:    p.ClientId(),
			DisplayName: string(p.DisplayName()),
		})
	}
	return roster, nil
}

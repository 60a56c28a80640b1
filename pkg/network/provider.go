package network

import (
	"context"
	"strings"
	"sync"

	authproviders "github.com/cbodonnell/lobbyhost/pkg/auth/providers"
	apperrors "github.com/cbodonnell/lobbyhost/pkg/errors"
	"github.com/google/uuid"
)

// JoinCodeLength is the number of characters in a join code.
const JoinCodeLength = 8

var (
	_ Provider       = &WSProvider{}
	_ ApprovalSetter = &WSProvider{}
)

// WSProvider hosts lobbies over WebSocket and joins them by code.
type WSProvider struct {
	hostAddr     string
	serverURL    string
	token        string
	authProvider authproviders.AuthProvider
	tls          *TLSConfig

	lock    sync.Mutex
	approve ApprovalFunc
}

type NewWSProviderOptions struct {
	// HostAddr is the address a host listens on.
	HostAddr string
	// ServerURL is where clients dial the host.
	ServerURL string
	// Token is sent by clients when the host requires authentication.
	Token        string
	AuthProvider authproviders.AuthProvider
	TLS          *TLSConfig
}

func NewWSProvider(opts NewWSProviderOptions) *WSProvider {
	return &WSProvider{
		hostAddr:     opts.HostAddr,
		serverURL:    opts.ServerURL,
		token:        opts.Token,
		authProvider: opts.AuthProvider,
		tls:          opts.TLS,
	}
}

func (p *WSProvider) SetApprovalFunc(fn ApprovalFunc) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.approve = fn
}

func (p *WSProvider) approval(clientID uint64) (bool, string) {
	p.lock.Lock()
	fn := p.approve
	p.lock.Unlock()
	if fn == nil {
		return true, ""
	}
	return fn(clientID)
}

func (p *WSProvider) ConnectAsHost(ctx context.Context, maxParticipants int) (string, Transport, error) {
	if maxParticipants < 1 {
		return "", nil, apperrors.New(apperrors.CodeInvalidArgument, "max participants must be at least 1")
	}
	code := NewJoinCode()
	host, err := NewWSHost(ctx, NewWSHostOptions{
		Addr:         p.hostAddr,
		JoinCode:     code,
		MaxClients:   maxParticipants,
		Approve:      p.approval,
		AuthProvider: p.authProvider,
		TLS:          p.tls,
	})
	if err != nil {
		return "", nil, err
	}
	return code, host, nil
}

func (p *WSProvider) ConnectAsClient(ctx context.Context, joinCode string) (Transport, error) {
	if strings.TrimSpace(joinCode) == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArgument, "join code must not be empty")
	}
	return DialWSClient(ctx, NewWSClientOptions{
		ServerURL: p.serverURL,
		JoinCode:  joinCode,
		Token:     p.token,
	})
}

// NewJoinCode returns a random upper-case join code.
func NewJoinCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:JoinCodeLength])
}

package providers

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"google.golang.org/api/option"
)

var _ AuthProvider = &FirebaseAuthProvider{}

// FirebaseAuthProvider verifies Firebase ID tokens presented by players
// joining a hosted lobby.
type FirebaseAuthProvider struct {
	auth         *auth.Client
	checkRevoked bool
}

type NewFirebaseAuthProviderOptions struct {
	ProjectID string
	// APIKey is used when no service account credentials are available.
	APIKey string
	// CredentialsFile is a service account JSON file. It takes precedence
	// over APIKey and is required for CheckRevoked.
	CredentialsFile string
	CheckRevoked    bool
}

func NewFirebaseAuthProvider(ctx context.Context, opts NewFirebaseAuthProviderOptions) (*FirebaseAuthProvider, error) {
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("firebase project id must not be empty")
	}
	var clientOpt option.ClientOption
	switch {
	case opts.CredentialsFile != "":
		clientOpt = option.WithCredentialsFile(opts.CredentialsFile)
	case opts.APIKey != "":
		clientOpt = option.WithAPIKey(opts.APIKey)
	default:
		return nil, fmt.Errorf("firebase needs an api key or a credentials file")
	}
	if opts.CheckRevoked && opts.CredentialsFile == "" {
		return nil, fmt.Errorf("checking revoked tokens needs a credentials file")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: opts.ProjectID}, clientOpt)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %v", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Auth client: %v", err)
	}

	return &FirebaseAuthProvider{
		auth:         client,
		checkRevoked: opts.CheckRevoked,
	}, nil
}

// VerifyToken verifies a Firebase ID token and returns its user id.
func (p *FirebaseAuthProvider) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	var (
		token *auth.Token
		err   error
	)
	if p.checkRevoked {
		token, err = p.auth.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	} else {
		token, err = p.auth.VerifyIDToken(ctx, idToken)
	}
	if err != nil {
		return nil, fmt.Errorf("error verifying token: %v", err)
	}
	return &TokenClaims{UID: token.UID}, nil
}

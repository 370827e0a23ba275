package service

import (
	"context"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/pkg/errors"
)

// ErrGoogleDisabled is returned by GoogleVerifier when no client id is set.
var ErrGoogleDisabled = errors.New("google sign-in is not configured")

// ExternalIdentity is what a social login provider vouches for.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
}

// IDTokenVerifier checks a provider-issued ID token.
type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (ExternalIdentity, error)
}

// GoogleVerifier validates Google ID tokens against ClientID.
type GoogleVerifier struct {
	ClientID string
}

func (g GoogleVerifier) Verify(_ context.Context, idToken string) (ExternalIdentity, error) {
	if g.ClientID == "" {
		return ExternalIdentity{}, ErrGoogleDisabled
	}
	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(idToken, []string{g.ClientID}); err != nil {
		return ExternalIdentity{}, errors.Wrap(err, "verify google id token")
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return ExternalIdentity{}, errors.Wrap(err, "decode google id token")
	}
	return ExternalIdentity{Subject: claimSet.Sub, Email: claimSet.Email, Name: claimSet.Name}, nil
}

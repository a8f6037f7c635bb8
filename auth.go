package chatsdk

import "context"

// Authenticator obtains an OAuth authorization code when the channel requires
// authorized sessions. The interactive flow (browser, app switch) happens
// entirely inside the implementation; the core only consumes the result.
type Authenticator interface {
	// AuthorizationCode returns the code and, for PKCE flows, the verifier.
	AuthorizationCode(ctx context.Context) (code string, verifier string, err error)
}

// StaticAuthenticator returns a fixed code/verifier pair. Useful for tests
// and for hosts that run the OAuth flow ahead of time.
type StaticAuthenticator struct {
	Code     string
	Verifier string
}

func (a StaticAuthenticator) AuthorizationCode(context.Context) (string, string, error) {
	return a.Code, a.Verifier, nil
}

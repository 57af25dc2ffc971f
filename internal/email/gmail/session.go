package gmail

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Session is an authenticated handle to one Google API, bound once per
// process to a scope, an API version and a credential
type Session struct {
	Scope       string // Fully-qualified
	ServiceName string
	Version     string
	Credential  *Credential
	Service     *gmail.Service
}

// ServiceName returns the API named by the first dot-delimited segment of
// scope, e.g. "gmail" for "gmail.readonly"
func ServiceName(scope string) string {
	short := ShortScope(scope)
	name, _, _ := strings.Cut(short, ".")
	return name
}

// NewSession loads (or obtains) a credential for scope from store and
// builds the API client. Extra options are passed to the client
// constructor.
func NewSession(ctx context.Context, store *TokenStore, scope, version string, opts ...option.ClientOption) (*Session, error) {
	name := ServiceName(scope)
	if name != "gmail" {
		return nil, fmt.Errorf("unsupported service %q for scope %s", name, scope)
	}
	if version != "v1" {
		return nil, fmt.Errorf("unsupported %s API version %q", name, version)
	}

	cred, err := store.Load(ctx, scope)
	if err != nil {
		return nil, err
	}

	store.Logger.Debug().Str("service", name).Str("version", version).Msg("connecting")

	clientOpts := append([]option.ClientOption{option.WithTokenSource(cred.TokenSource(ctx))}, opts...)
	svc, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Session{
		Scope:       NormalizeScope(scope),
		ServiceName: name,
		Version:     version,
		Credential:  cred,
		Service:     svc,
	}, nil
}

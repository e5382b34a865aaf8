package store

import (
	"context"

	"github.com/roach88/docgraph/internal/flex"
)

// Authorizer is the host's capability check for certify. The store does
// not verify identities or signatures itself.
type Authorizer interface {
	IsAuthorized(ctx context.Context, certifier flex.Identifier) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, certifier flex.Identifier) bool

// IsAuthorized calls f(ctx, certifier).
func (f AuthorizerFunc) IsAuthorized(ctx context.Context, certifier flex.Identifier) bool {
	return f(ctx, certifier)
}

// StaticAuthorizer allows a fixed set of certifiers.
type StaticAuthorizer map[flex.Identifier]bool

// NewStaticAuthorizer allows exactly the given certifiers.
func NewStaticAuthorizer(certifiers ...string) StaticAuthorizer {
	a := make(StaticAuthorizer, len(certifiers))
	for _, c := range certifiers {
		a[flex.Identifier(c)] = true
	}
	return a
}

// IsAuthorized reports whether certifier is in the set.
func (a StaticAuthorizer) IsAuthorized(_ context.Context, certifier flex.Identifier) bool {
	return a[certifier]
}

type denyAll struct{}

func (denyAll) IsAuthorized(context.Context, flex.Identifier) bool { return false }

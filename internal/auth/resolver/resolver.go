package resolver

import (
	"context"

	"github.com/ToonLance/freelancer-nest-profile/internal/auth"
)

// Resolver maps a verified provider identity to the internal user id,
// creating the user on first sight. Profiles and sessions are keyed by
// that id, never by the provider subject.
type Resolver interface {
	Resolve(
		ctx context.Context,
		identity *auth.Identity,
	) (userID string, err error)
}

// Func adapts a plain function to Resolver.
type Func func(ctx context.Context, identity *auth.Identity) (string, error)

func (f Func) Resolve(ctx context.Context, identity *auth.Identity) (string, error) {
	return f(ctx, identity)
}

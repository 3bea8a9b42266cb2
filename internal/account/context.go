package account

import "context"

type storeContextKeyType struct{}

var storeKey = storeContextKeyType{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey, s)
}

// FromContext extracts the request's session store.
func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(storeKey).(*Store)
	return s, ok
}

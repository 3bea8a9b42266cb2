package account

import (
	"errors"
	"fmt"

	"github.com/ToonLance/freelancer-nest-profile/internal/profile"
)

var (
	ErrNotSignedIn        = errors.New("account: not signed in")
	ErrUsernameTaken      = profile.ErrUsernameTaken
	ErrUsernameAlreadySet = profile.ErrUsernameAlreadySet
)

// ProviderError reports a failed call to the identity provider.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("account: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ValidationError reports a candidate value that breaks a field constraint.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("account: invalid %s: %s", e.Field, e.Message)
}

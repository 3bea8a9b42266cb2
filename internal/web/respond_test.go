package web

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/ToonLance/freelancer-nest-profile/internal/account"
	"github.com/ToonLance/freelancer-nest-profile/internal/profile"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: &account.ValidationError{Field: "username", Message: "too short"}, want: http.StatusBadRequest},
		{name: "invalid input", err: fmt.Errorf("%w: eof", ErrInvalidInput), want: http.StatusBadRequest},
		{name: "not signed in", err: account.ErrNotSignedIn, want: http.StatusUnauthorized},
		{name: "profile missing", err: profile.ErrNotFound, want: http.StatusNotFound},
		{name: "username missing", err: profile.ErrUsernameNotFound, want: http.StatusNotFound},
		{name: "taken", err: account.ErrUsernameTaken, want: http.StatusConflict},
		{name: "already set", err: fmt.Errorf("claim: %w", account.ErrUsernameAlreadySet), want: http.StatusConflict},
		{name: "provider", err: &account.ProviderError{Op: "sign in", Err: errors.New("timeout")}, want: http.StatusBadGateway},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestValidator_ReportsJSONFieldName(t *testing.T) {
	v := NewValidator()

	err := v.Validate(profile.Update{Skills: []string{""}})

	var verr *account.ValidationError
	if assert.ErrorAs(t, err, &verr) {
		assert.Contains(t, verr.Field, "skills")
	}

	assert.NoError(t, v.Validate(profile.Update{Bio: profile.StringPtr("ok")}))
}

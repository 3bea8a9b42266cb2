package session

import (
	"fmt"

	"github.com/ToonLance/freelancer-nest-profile/internal/utils"
)

// GenerateID returns a new opaque session id.
func GenerateID() (string, error) {
	id, err := utils.RandomToken(utils.TokenSize)
	if err != nil {
		return "", fmt.Errorf("session: generate id: %w", err)
	}
	return id, nil
}

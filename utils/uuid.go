package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GetToken returns a random unguessable token.
func GetToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

package websocket

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

var ErrUnknownAction = errors.New("unknown action")

// GenerateNewSessionID - generates a new unique sessionID.
func GenerateNewSessionID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "error-generating-session-id"
	}

	return base64.RawURLEncoding.EncodeToString(b)
}

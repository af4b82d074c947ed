package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

var ErrNotFound = errors.New("token not found")

// KeyBytes is the amount of randomness in a key; keys are hex encoded.
const KeyBytes = 20

// Token is an opaque bearer credential bound to a single user.
type Token struct {
	Key       string    `json:"token"`
	UserID    string    `json:"-"`
	CreatedAt time.Time `json:"-"`
}

func NewKey() (string, error) {
	b := make([]byte, KeyBytes)

	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

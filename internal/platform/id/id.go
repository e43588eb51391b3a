// Package id generates compact random identifiers.
package id

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a 26-character lowercase base32 identifier derived from a
// random UUID. The encoding keeps ids URL-safe and case-insensitive-unique.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(value[:])
	return strings.ToLower(encoded), nil
}

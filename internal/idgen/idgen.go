// Package idgen generates request identifiers backed by nanoid.
package idgen

import (
	"fmt"
	"regexp"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// RequestPrefix is prepended to every generated request ID.
const RequestPrefix = "req-"

// Alphabet defines the character set used for the random portion of the ID.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
const Length = 12

// maxIncomingLength bounds request IDs accepted from clients.
const maxIncomingLength = 64

var incomingPattern = regexp.MustCompile(`^[-_.a-zA-Z0-9]+$`)

// RequestID returns a new request ID.
func RequestID() (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return RequestPrefix + id, nil
}

// ValidIncoming reports whether a client-supplied request ID is safe to echo
// back and log.
func ValidIncoming(id string) bool {
	return len(id) <= maxIncomingLength && incomingPattern.MatchString(id)
}

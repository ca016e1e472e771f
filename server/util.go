package main

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// GenerateID returns a random hex string of the given byte length
func GenerateID(byteLen int) string {
	b := make([]byte, byteLen)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// GenerateUUID returns a random v4 UUID, used for shareable session IDs
func GenerateUUID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether s looks like a session ID
func ValidSessionID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

// cleanName trims a display name, caps it at max bytes and falls back to
// def when nothing is left
func cleanName(name, def string, max int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return def
	}
	if len(name) > max {
		name = name[:max]
	}
	return name
}

// Package ids generates and parses the opaque 128-bit identifiers used for
// Batches, Documents, Findings, and reports. IDs are rendered as lowercase
// hex, matching the data model in spec.md §3.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ID is a 128-bit opaque identifier rendered as 32 lowercase hex characters.
type ID [16]byte

// New generates a fresh random ID.
func New() ID {
	var id ID
	if _, err := rand.Read(id[:]); err != nil {
		panic(fmt.Sprintf("ids.New: read random bytes: %v", err))
	}
	return id
}

// String renders the ID as lowercase hex.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

// Parse decodes a lowercase hex string into an ID.
func Parse(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("ids.Parse: %w", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("ids.Parse: expected %d bytes, got %d", len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

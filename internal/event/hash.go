package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainEvent separates event fingerprints from any other hash the system
// might compute over the same bytes. The suffix versions the algorithm.
const DomainEvent = "ultistats/event/v1"

// Fingerprint is SHA256(domain || 0x00 || canonical JSON of e).
//
// Two deliveries of the same (team, seq) with identical content share a
// fingerprint; the store uses this to tell a harmless redelivery from an
// amendment.
func Fingerprint(e Event) (string, error) {
	canonical, err := MarshalCanonical(e.Normalize())
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainEvent))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when e has already been validated.
func MustFingerprint(e Event) string {
	fp, err := Fingerprint(e)
	if err != nil {
		panic(err)
	}
	return fp
}

package idformat

import (
	"crypto/rand"
	"encoding/binary"

	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/google/uuid"
)

const digits = "0123456789"

// Source supplies the randomness used by RandomNumbers and Guid segments.
type Source interface {
	// Digits returns n independently drawn decimal digits.
	Digits(n int) string
	// Uint32 returns a uniformly distributed 32-bit value.
	Uint32() uint32
	// UUID returns a fresh 128-bit identifier.
	UUID() uuid.UUID
}

// CryptoSource draws from crypto/rand. It panics if the system random source
// fails, the same way uuid.New does.
type CryptoSource struct{}

func (CryptoSource) Digits(n int) string {
	if n <= 0 {
		return ""
	}
	return nanoid.MustGenerate(digits, n)
}

func (CryptoSource) Uint32() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("idformat: crypto/rand failed: " + err.Error())
	}
	return binary.BigEndian.Uint32(b[:])
}

func (CryptoSource) UUID() uuid.UUID {
	return uuid.New()
}

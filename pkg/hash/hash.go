// Package hash verifies stored staff passwords. Two stored formats exist:
// bcrypt hashes, and the legacy "salt:digest" form where digest is the hex
// PBKDF2-SHA512 of the password.
package hash

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	BcryptCost = 12

	legacyIterations = 120_000
	legacyKeyLen     = 64
	legacyDelimiter  = ":"
)

var ErrUnknownHashFormat = errors.New("unknown password hash format")

type Scheme int

const (
	SchemeModern Scheme = iota + 1
	SchemeLegacy
)

func (s Scheme) String() string {
	switch s {
	case SchemeModern:
		return "bcrypt"
	case SchemeLegacy:
		return "pbkdf2-sha512"
	default:
		return "unknown"
	}
}

// StoredHash is a parsed password hash. Hash is set for SchemeModern,
// Salt and Digest for SchemeLegacy.
type StoredHash struct {
	Scheme Scheme
	Hash   string
	Salt   string
	Digest string
}

func Parse(stored string) (StoredHash, error) {
	if salt, digest, ok := strings.Cut(stored, legacyDelimiter); ok {
		if salt == "" || digest == "" || strings.Contains(digest, legacyDelimiter) {
			return StoredHash{}, ErrUnknownHashFormat
		}
		return StoredHash{Scheme: SchemeLegacy, Salt: salt, Digest: digest}, nil
	}
	if strings.HasPrefix(stored, "$2") {
		return StoredHash{Scheme: SchemeModern, Hash: stored}, nil
	}
	return StoredHash{}, ErrUnknownHashFormat
}

func (h StoredHash) Verify(password string) bool {
	switch h.Scheme {
	case SchemeModern:
		return bcrypt.CompareHashAndPassword([]byte(h.Hash), []byte(password)) == nil
	case SchemeLegacy:
		want := legacyDigest(password, h.Salt)
		return subtle.ConstantTimeCompare([]byte(want), []byte(h.Digest)) == 1
	default:
		return false
	}
}

func Verify(password, stored string) bool {
	h, err := Parse(stored)
	if err != nil {
		return false
	}
	return h.Verify(password)
}

func HashPassword(password string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

// LegacyHash produces the "salt:digest" form. An empty salt gets a random one.
func LegacyHash(password, salt string) (string, error) {
	if salt == "" {
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		salt = hex.EncodeToString(buf)
	}
	return salt + legacyDelimiter + legacyDigest(password, salt), nil
}

func legacyDigest(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), legacyIterations, legacyKeyLen, sha512.New)
	return hex.EncodeToString(key)
}

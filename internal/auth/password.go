package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password records are stored as "<scheme>:<payload>". Legacy records
// predate the tagging and are bare keyed-hash digests, so an untagged
// value parses as the legacy scheme.

type Scheme string

const (
	SchemePlaintext Scheme = "plaintext"
	SchemeLegacy    Scheme = "legacy"
	SchemeBcrypt    Scheme = "bcrypt"
)

// upgrades maps each scheme to the one a successful login rewrites it to.
// Absent entries are terminal.
var upgrades = map[Scheme]Scheme{
	SchemePlaintext: SchemeBcrypt,
	SchemeLegacy:    SchemeBcrypt,
}

type PasswordRecord struct {
	Scheme  Scheme
	Payload string
}

var ErrUnknownScheme = errors.New("unknown password scheme")

func ParseRecord(stored string) (PasswordRecord, error) {
	scheme, payload, found := strings.Cut(stored, ":")
	if !found {
		return PasswordRecord{Scheme: SchemeLegacy, Payload: stored}, nil
	}
	switch Scheme(scheme) {
	case SchemePlaintext, SchemeLegacy, SchemeBcrypt:
		return PasswordRecord{Scheme: Scheme(scheme), Payload: payload}, nil
	}
	return PasswordRecord{}, ErrUnknownScheme
}

func (r PasswordRecord) String() string {
	return string(r.Scheme) + ":" + r.Payload
}

// Verify checks password against the record. secret keys the legacy hash.
func (r PasswordRecord) Verify(password, secret string) bool {
	switch r.Scheme {
	case SchemeBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(r.Payload), []byte(password)) == nil
	case SchemePlaintext:
		return password == r.Payload
	case SchemeLegacy:
		sum := sha256.Sum256([]byte(password + secret))
		digest := hex.EncodeToString(sum[:])
		return subtle.ConstantTimeCompare([]byte(digest), []byte(r.Payload)) == 1
	}
	return false
}

// NeedsUpgrade reports whether a successful login should rewrite the record.
func (r PasswordRecord) NeedsUpgrade() bool {
	_, ok := upgrades[r.Scheme]
	return ok
}

// NewBcryptRecord builds a strong-salted record from a plaintext password.
func NewBcryptRecord(password string) (PasswordRecord, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return PasswordRecord{}, err
	}
	return PasswordRecord{Scheme: SchemeBcrypt, Payload: string(hashed)}, nil
}

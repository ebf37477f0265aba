package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only looks at the first 72 bytes.
const bcryptMaxInput = 72

// PasswordEncoder hashes and verifies user passwords.
type PasswordEncoder interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

type BcryptEncoder struct {
	Cost int
}

func NewBcryptEncoder(cost int) *BcryptEncoder {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptEncoder{Cost: cost}
}

func (e *BcryptEncoder) Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("empty password")
	}
	h, err := bcrypt.GenerateFromPassword(prepare(plain), e.Cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (e *BcryptEncoder) Verify(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), prepare(plain)) == nil
}

// prepare pre-hashes inputs bcrypt would otherwise truncate or reject.
func prepare(plain string) []byte {
	if len(plain) <= bcryptMaxInput {
		return []byte(plain)
	}
	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

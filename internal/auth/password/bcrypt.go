// Package password hashes and verifies login passwords.
//
// Stored hashes are bcrypt strings such as
// "$2a$10$HdiYik9N/S.GsTOZnlaAVelq8BRfMsteMzp3Clf4EVYMGu8eMbbgO": algorithm
// version, cost, then 22 characters of salt followed by the digest. The salt
// lives inside the hash, so hashing the same password twice gives two
// different strings that both verify.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured
const DefaultCost = 10

// Verifier compares a submitted password with a stored hash
type Verifier interface {
	Verify(plaintext, storedHash string) bool
}

// Bcrypt hashes and verifies passwords with bcrypt
type Bcrypt struct {
	// Cost is the work factor for new hashes. Zero means DefaultCost.
	Cost int
}

// NewBcrypt returns a Bcrypt with the given cost after checking its range
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{Cost: cost}, nil
}

// Hash returns a new salted hash of plaintext
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches storedHash. A malformed hash never matches.
func (b *Bcrypt) Verify(plaintext, storedHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext))
	return err == nil
}

// CostOf returns the work factor storedHash was made with. ok is false when
// storedHash is not a bcrypt hash at all.
func CostOf(storedHash string) (cost int, ok bool) {
	cost, err := bcrypt.Cost([]byte(storedHash))
	if err != nil {
		return 0, false
	}
	return cost, true
}

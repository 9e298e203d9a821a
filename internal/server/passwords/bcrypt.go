// Package passwords hashes and verifies user passwords with bcrypt.
package passwords

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/trustkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

type Hasher interface {
	Hash(plaintext string) (string, error)
	// Verify compares in constant time and reports whether plaintext matches.
	Verify(plaintext, digest string) bool
	// VerifyDummy burns the same CPU as a failed Verify. Used when there is
	// no stored digest so both paths take equal time.
	VerifyDummy(plaintext string)
}

// BcryptHasher implements Hasher.
type BcryptHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("password too long: %w", err)
		}
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

func (h *BcryptHasher) VerifyDummy(plaintext string) {
	h.dummyOnce.Do(func() {
		secret, err := common.MakeRandHexString(16)
		if err != nil {
			secret = "trustkeeper-dummy-password"
		}
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
}

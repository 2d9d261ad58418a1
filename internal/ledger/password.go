package ledger

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordLen is the longest secret bcrypt accepts.
const maxPasswordLen = 72

func hashPassword(password string, cost int) ([]byte, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

// comparePassword reports whether candidate matches hash. bcrypt compares in
// constant time.
func comparePassword(hash []byte, candidate string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(hash, []byte(candidate))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

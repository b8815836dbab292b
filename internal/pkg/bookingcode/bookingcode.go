package bookingcode

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// Booking codes are short tokens renters share with hosts; access codes
// unlock the charger and are stored hashed, returned in plaintext exactly
// once on confirmation.

const (
	codePrefix     = "BK"
	codeLength     = 6
	accessCodeLen  = 8
	codeAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O/1/I
	minBcryptCost  = bcrypt.DefaultCost
	maxPlaintextLn = 72 // bcrypt input limit
)

func NewBookingCode() (string, error) {
	suffix, err := randomString(codeLength)
	if err != nil {
		return "", err
	}
	return codePrefix + suffix, nil
}

func NewAccessCode() (string, error) {
	return randomString(accessCodeLen)
}

func HashAccessCode(plain string) (string, error) {
	if len(plain) > maxPlaintextLn {
		plain = plain[:maxPlaintextLn]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), minBcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyAccessCode(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func randomString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = codeAlphabet[idx.Int64()]
	}
	return string(out), nil
}

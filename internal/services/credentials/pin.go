package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
)

// PinLength is the number of decimal digits in an issued PIN.
const PinLength = 4

// HashSecret returns the hex SHA-256 digest of secret. The digest is the
// lookup key for a credential; it is never reversed.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// GeneratePin draws PinLength independent, uniform decimal digits from r.
// Leading zeros are kept, so "0042" is a valid result.
func GeneratePin(r io.Reader) (string, error) {
	ten := big.NewInt(10)
	digits := make([]byte, PinLength)
	for i := range digits {
		n, err := rand.Int(r, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate pin: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// ValidatePinFormat reports ErrInvalidPinFormat unless pin is exactly
// PinLength ASCII digits.
func ValidatePinFormat(pin string) error {
	if len(pin) != PinLength {
		return ErrInvalidPinFormat
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return ErrInvalidPinFormat
		}
	}
	return nil
}

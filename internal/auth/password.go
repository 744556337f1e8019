package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the cost factor the rest of the system was provisioned
// with; changing it invalidates no hashes but slows new ones.
const bcryptCost = 10

// Character classes for generated passwords. Visually ambiguous characters
// (I, O, l, o, 0, 1) are excluded because generated passwords are delivered
// out of band and typed by hand.
const (
	passwordUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	passwordLower   = "abcdefghijkmnpqrstuvwxyz"
	passwordDigits  = "23456789"
	passwordSpecial = "@#$%&*!?"
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateRandomPassword returns a password of the given length with at
// least one character from each class. Lengths below 4 are raised to 4 so
// every class fits.
func GenerateRandomPassword(length int) (string, error) {
	if length < 4 {
		length = 4
	}

	all := passwordUpper + passwordLower + passwordDigits + passwordSpecial

	chars := make([]byte, 0, length)
	for _, class := range []string{passwordUpper, passwordLower, passwordDigits, passwordSpecial} {
		c, err := randByte(class)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}
	for len(chars) < length {
		c, err := randByte(all)
		if err != nil {
			return "", err
		}
		chars = append(chars, c)
	}

	// Fisher-Yates so the class-guaranteed characters do not always lead.
	for i := len(chars) - 1; i > 0; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return "", err
		}
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars), nil
}

func randByte(alphabet string) (byte, error) {
	i, err := randIndex(len(alphabet))
	if err != nil {
		return 0, err
	}
	return alphabet[i], nil
}

func randIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("reading randomness: %w", err)
	}
	return int(v.Int64()), nil
}

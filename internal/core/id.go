package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const idLength = 10

// GenerateID generates a random alphanumeric ID of length 10.
func GenerateID() string {
	b := make([]byte, idLength)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(idCharset))))
		if err != nil {
			return generateFallbackID()
		}
		b[i] = idCharset[num.Int64()]
	}
	return string(b)
}

func generateFallbackID() string {
	return fmt.Sprintf("n%09d", time.Now().UnixNano()%1_000_000_000)
}

// TimeSeed returns a non-zero seed derived from the clock, used when a
// negotiation is created without an explicit seed.
func TimeSeed() int64 {
	seed := time.Now().UnixNano()
	if seed == 0 {
		return 1
	}
	return seed
}

package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const pairCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// PairCodeLength is the number of random characters in a pairing code,
// excluding the group separator.
const PairCodeLength = 8

// GeneratePairCode generates an 8-character alphanumeric pairing code in
// grouped XXXX-XXXX form. 36^8 possible draws makes accidental collision
// negligible; the database uniqueness constraint catches the rest.
func GeneratePairCode() (string, error) {
	var b strings.Builder
	for i := 0; i < PairCodeLength; i++ {
		if i == PairCodeLength/2 {
			b.WriteByte('-')
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pairCodeCharset))))
		if err != nil {
			return "", err
		}
		b.WriteByte(pairCodeCharset[n.Int64()])
	}
	return b.String(), nil
}

package utils

import (
	"crypto/rand"
	"math/big"
)

const trackingCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateTrackingCode generates a random uppercase code of length n,
// skipping ambiguous characters (0/O, 1/I).
func GenerateTrackingCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(trackingCharset))))
		if err != nil {
			return ""
		}
		b[i] = trackingCharset[num.Int64()]
	}
	return string(b)
}

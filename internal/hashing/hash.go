package hashing

import (
	"crypto/sha256"
	"encoding/hex"
)

func Sum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// SumHex returns the lowercase hex encoding of the SHA-256 digest of data.
func SumHex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

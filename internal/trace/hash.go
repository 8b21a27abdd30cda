package trace

import (
	"crypto/sha256"
	"encoding/hex"
)

func computeHash(encoded []byte) string {
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

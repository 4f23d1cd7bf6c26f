// Package identifier generates the short student identifier and its stored digest.
package identifier

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

const (
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	Length   = 4
)

// Generate returns a Length-character identifier sampled uniformly with
// replacement from Alphabet. Uniqueness is not checked.
func Generate() (string, error) {
	return generate(rand.Reader)
}

// 248 is the largest multiple of 62 below 256; higher bytes are rejected to keep the draw uniform.
const rejectAbove = 248

func generate(r io.Reader) (string, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, 8)
	for len(out) < Length {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == Length {
				break
			}
		}
	}
	return string(out), nil
}

// Hash is the lowercase hex SHA-256 digest of id.
func Hash(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

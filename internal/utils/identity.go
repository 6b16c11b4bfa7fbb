package utils

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// UserIDFromEmail derives the stable user key from an email address. It is a
// lookup key, not a secret: existing rows are keyed by this exact digest.
func UserIDFromEmail(email string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(email)))
	return hex.EncodeToString(sum[:])
}

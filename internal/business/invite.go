package business

import (
	"crypto/rand"
	"fmt"
)

// inviteCharset avoids ambiguous characters (0/O, 1/I/L).
const inviteCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const inviteCodeLength = 8

// newInviteCode returns a random human-readable join code.
func newInviteCode() (string, error) {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("business: invite code: %w", err)
	}
	for i, b := range buf {
		buf[i] = inviteCharset[int(b)%len(inviteCharset)]
	}
	return string(buf), nil
}

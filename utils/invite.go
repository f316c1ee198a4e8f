package utils

import "crypto/rand"

const inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// InvitationCodeLength is the fixed length of partner invitation codes.
const InvitationCodeLength = 8

// GenerateInvitationCode returns a random 8-character upper-case alphanumeric
// code. Uniqueness is enforced by the database index; callers retry on a
// duplicate-key error.
func GenerateInvitationCode() string {
	buf := make([]byte, InvitationCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure means the platform is broken
	}
	for i, b := range buf {
		buf[i] = inviteAlphabet[int(b)%len(inviteAlphabet)]
	}
	return string(buf)
}

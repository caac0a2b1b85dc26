// Package ids mints and validates document identifiers.
//
// Every document stored by the server is keyed by a 24-character
// hexadecimal string: a 4-byte big-endian unix-seconds timestamp followed
// by 8 random bytes. Ids minted on the same node therefore sort roughly
// by creation time.
package ids

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Length is the number of hex characters in a document id.
const Length = 24

var (
	idPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

	ErrInvalidID = errors.New("invalid document id")
)

// New mints a fresh document id.
func New() (string, error) {
	var raw [12]byte
	binary.BigEndian.PutUint32(raw[:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(raw[4:]); err != nil {
		return "", fmt.Errorf("generate id entropy: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}

// Validate reports whether value is a well-formed document id.
func Validate(value string) error {
	if !idPattern.MatchString(value) {
		return ErrInvalidID
	}
	return nil
}

// Timestamp extracts the creation time encoded in the id prefix.
// The id must already be valid.
func Timestamp(value string) (time.Time, error) {
	if err := Validate(value); err != nil {
		return time.Time{}, err
	}
	raw, err := hex.DecodeString(value[:8])
	if err != nil {
		return time.Time{}, ErrInvalidID
	}
	seconds := binary.BigEndian.Uint32(raw)
	return time.Unix(int64(seconds), 0).UTC(), nil
}

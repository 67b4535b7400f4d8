package common

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

const checksumLength = 4

// checksum returns the first four bytes of the double SHA-256 of payload
func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}

// EncodeCheck encodes version || payload || checksum to base58
func EncodeCheck(version byte, payload []byte) string {
	buf := make([]byte, 0, 1+len(payload)+checksumLength)
	buf = append(buf, version)
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf)...)
	return base58.Encode(buf)
}

// DecodeCheck decodes a base58check string and verifies its checksum
func DecodeCheck(str string) (version byte, payload []byte, err error) {
	decoded, err := base58.Decode(str)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to decode base58 string: %w", err)
	}
	if len(decoded) < 1+checksumLength {
		return 0, nil, fmt.Errorf("base58check string too short")
	}

	body := decoded[:len(decoded)-checksumLength]
	if !bytes.Equal(checksum(body), decoded[len(decoded)-checksumLength:]) {
		return 0, nil, fmt.Errorf("base58check checksum mismatch")
	}
	return body[0], body[1:], nil
}

// IsValidBase58 checks if a string is valid base58
func IsValidBase58(str string) bool {
	decoded, err := base58.Decode(str)
	return err == nil && len(decoded) > 0
}

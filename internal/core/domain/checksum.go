package domain

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// Checksum returns the lower-case hex SHA-256 of data
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ChecksumFromBase64 converts an object store base64 SHA-256 (x-amz-checksum-sha256) to lower-case hex
func ChecksumFromBase64(value string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

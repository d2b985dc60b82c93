package generator

import (
	"crypto/sha256"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/Project-Sylos/Arbor/internal/types"
)

// ComputeChecksum computes a SHA256 checksum for the given data
func ComputeChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}

// Fingerprint computes a checksum over a record set. Field maps are encoded
// with sorted keys, so equal records in equal order always match.
func Fingerprint(items []*types.Item) (string, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode items: %w", err)
	}
	return ComputeChecksum(data), nil
}

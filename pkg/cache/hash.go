package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashParams hashes a parameter map. encoding/json sorts map keys, so equal
// maps hash equally regardless of insertion order.
func HashParams(params map[string]any) string {
	if len(params) == 0 {
		return "none"
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("unhashable:%v", err)
	}
	return Hash(data)[:16]
}

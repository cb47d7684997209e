package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashKey returns the hex MD5 of key.
func HashKey(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ForecastKey derives a stable key from any JSON-encodable request. Map keys
// are sorted by encoding/json, so equal requests hash equally.
func ForecastKey(req any) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	return "forecast:" + HashKey(string(b)), nil
}

// JobKey is where a job's status and result live.
func JobKey(id string) string {
	return "job:" + id
}

package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"sync"
)

// hasherPool holds HMAC-SHA256 hashers keyed with the server's push hash
// key. It is empty until InitHasherPool runs.
var hasherPool sync.Pool

// InitHasherPool keys the pooled hashers used by Hash and VerifyJSON.
func InitHasherPool(hashKey string) {
	hasherPool = sync.Pool{
		New: func() any {
			return hmac.New(sha256.New, []byte(hashKey))
		},
	}
}

// Hash returns the HMAC-SHA256 of data under the pool key.
func Hash(data []byte) []byte {
	h := hasherPool.Get().(hash.Hash)
	defer hasherPool.Put(h)

	h.Reset()
	h.Write(data)
	return h.Sum(nil)
}

// VerifyJSON reports whether hexSum is the pooled HMAC of the JSON encoding
// of v. The comparison is constant-time; a malformed hexSum never matches.
func VerifyJSON(v any, hexSum string) (bool, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("marshal payload for hashing: %w", err)
	}

	want, err := hex.DecodeString(hexSum)
	if err != nil {
		return false, nil
	}
	return hmac.Equal(Hash(payload), want), nil
}

// HashJSON returns the hex HMAC-SHA256 of the JSON encoding of v under
// hashKey. Clients sign push batches with it.
func HashJSON(v any, hashKey string) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload for hashing: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(hashKey))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

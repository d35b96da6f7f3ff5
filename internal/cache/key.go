package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// credentialHashLength is the number of hex characters of the SHA-256
// digest kept in a cache key. 16 characters (64 bits) keeps keys short
// while making collisions between live credentials negligible.
const credentialHashLength = 16

// CredentialKey builds a cache key from a raw credential. The credential
// is hashed so that bearer tokens and API keys never appear in cache keys.
func CredentialKey(prefix, credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return prefix + hex.EncodeToString(sum[:])[:credentialHashLength]
}

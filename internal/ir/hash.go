package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for digests. The version suffix allows the encoding to
// change without colliding with digests persisted by older builds.
const (
	DomainVersion = "syncmodel/version/v1"
	DomainState   = "syncmodel/state/v1"
	DomainTrace   = "syncmodel/trace/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns the domain-separated digest of the canonical form of obj.
func Digest(domain string, obj IRObject) (string, error) {
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// MustDigest is like Digest but panics on error.
// Use only when obj is built from IR types that are known to encode.
func MustDigest(domain string, obj IRObject) string {
	d, err := Digest(domain, obj)
	if err != nil {
		panic(err)
	}
	return d
}

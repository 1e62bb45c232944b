// Package auth implements the reflector's challenge-response authentication
// (spec.md §4.3): HMAC(shared_secret_for_callsign, nonce), plus derivation of
// a per-session secret for future per-frame authentication.
//
// The HMAC hash primitive is SM3 (github.com/tjfoc/gmsm/sm3), the domain
// cryptographic library carried over from the teacher's dependency set — SM3
// implements hash.Hash so it plugs directly into crypto/hmac.New the same way
// any stdlib hash would. Per-session secret derivation uses HKDF
// (golang.org/x/crypto/hkdf) over the same shared secret and nonce. Nonce
// generation stays on crypto/rand: there is no ecosystem alternative that
// improves on the standard library's CSPRNG.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"hash"
	"io"

	"github.com/tjfoc/gmsm/sm3"
	"golang.org/x/crypto/hkdf"
)

// NonceSize matches spec.md §4.3's "nonce is >= 16 random bytes".
const NonceSize = 32

// NewNonce returns a fresh cryptographically random nonce.
func NewNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}

func newHash() hash.Hash { return sm3.New() }

// Digest computes HMAC(secret, nonce) using the SM3 hash.
func Digest(secret, nonce []byte) []byte {
	mac := hmac.New(newHash, secret)
	mac.Write(nonce)
	return mac.Sum(nil)
}

// Verify reports whether digest is the expected HMAC of nonce under secret,
// using a constant-time comparison.
func Verify(secret, nonce, digest []byte) bool {
	expected := Digest(secret, nonce)
	return hmac.Equal(expected, digest)
}

// DeriveSessionSecret expands (secret, nonce) into a per-connection key via
// HKDF. It is stored on the Client (SPEC_FULL.md §3) for use by any future
// per-frame authentication; today only its presence and determinism are
// exercised by tests.
func DeriveSessionSecret(secret, nonce []byte, size int) ([]byte, error) {
	kdf := hkdf.New(newHash, secret, nonce, []byte("svxreflector-session"))
	out := make([]byte, size)
	if _, err := io.ReadFull(kdf, out); err != nil {
		return nil, err
	}
	return out, nil
}

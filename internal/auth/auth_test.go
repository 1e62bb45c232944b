package auth

import "testing"

func TestDigestVerifyRoundTrip(t *testing.T) {
	secret := []byte("supersecret")
	nonce, err := NewNonce()
	if err != nil {
		t.Fatalf("NewNonce: %v", err)
	}
	if len(nonce) != NonceSize {
		t.Fatalf("nonce len = %d, want %d", len(nonce), NonceSize)
	}

	digest := Digest(secret, nonce)
	if !Verify(secret, nonce, digest) {
		t.Fatal("expected digest to verify")
	}
	if Verify([]byte("wrong"), nonce, digest) {
		t.Fatal("expected verify to fail with wrong secret")
	}
}

func TestDeriveSessionSecretDeterministic(t *testing.T) {
	secret := []byte("supersecret")
	nonce := []byte("0123456789abcdef0123456789abcdef")

	k1, err := DeriveSessionSecret(secret, nonce, 32)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	k2, err := DeriveSessionSecret(secret, nonce, 32)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if len(k1) != 32 {
		t.Fatalf("len = %d, want 32", len(k1))
	}
	for i := range k1 {
		if k1[i] != k2[i] {
			t.Fatal("expected deterministic derivation for same inputs")
		}
	}

	k3, err := DeriveSessionSecret(secret, []byte("different-nonce-bytes-32--------"), 32)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if string(k1) == string(k3) {
		t.Fatal("expected different nonce to produce a different derived secret")
	}
}

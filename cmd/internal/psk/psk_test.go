package psk

import (
	"bytes"
	"testing"
)

func TestDeriveKeys_DirectionsDifferAndAreDeterministic(t *testing.T) {
	a1, b1 := DeriveKeys("correct horse battery staple")
	a2, b2 := DeriveKeys("correct horse battery staple")

	if !bytes.Equal(a1, a2) || !bytes.Equal(b1, b2) {
		t.Fatal("DeriveKeys is not deterministic for the same passphrase")
	}
	if bytes.Equal(a1, b1) {
		t.Fatal("toServer and toClient keys must differ")
	}
	if len(a1) != 32 || len(b1) != 32 {
		t.Fatalf("key length = %d/%d, want 32/32", len(a1), len(b1))
	}
}

func TestDeriveKeys_DifferentPassphraseDifferentKeys(t *testing.T) {
	a, _ := DeriveKeys("passphrase one")
	b, _ := DeriveKeys("passphrase two")
	if bytes.Equal(a, b) {
		t.Fatal("different passphrases produced identical keys")
	}
}

func TestDeriveSessionID_Deterministic(t *testing.T) {
	id1 := DeriveSessionID("shared secret")
	id2 := DeriveSessionID("shared secret")
	if id1 != id2 {
		t.Fatal("DeriveSessionID is not deterministic for the same passphrase")
	}
}

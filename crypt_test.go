package pgv2

import "testing"

func TestUnixCryptDeterministic(t *testing.T) {
	salt := [2]byte{'a', 'b'}
	got1 := unixCrypt("secret", salt)
	got2 := unixCrypt("secret", salt)
	if got1 != got2 {
		t.Errorf("unixCrypt not deterministic: %q != %q", got1, got2)
	}
	if len(got1) != 13 {
		t.Errorf("unixCrypt output length = %d, want 13 (2-byte salt + 11-char hash)", len(got1))
	}
	if got1[:2] != "ab" {
		t.Errorf("unixCrypt did not preserve the salt prefix: %q", got1)
	}
}

func TestUnixCryptDifferentSaltsDiffer(t *testing.T) {
	a := unixCrypt("secret", [2]byte{'a', 'a'})
	b := unixCrypt("secret", [2]byte{'z', 'z'})
	if a == b {
		t.Errorf("different salts produced the same crypt output")
	}
}

func TestUnixCryptKnownVector(t *testing.T) {
	got := unixCrypt("secret", [2]byte{'a', 'b'})
	want := "abNANd1rDfiNc"
	if got != want {
		t.Errorf("unixCrypt(%q, %q) = %q, want %q", "secret", "ab", got, want)
	}
}

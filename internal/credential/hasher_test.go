package credential

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestDigest_KnownVector(t *testing.T) {
	got := DigestString("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("DigestString(abc) = %q, want %q", got, want)
	}
}

func TestDigest_Deterministic(t *testing.T) {
	a := Digest([]byte("secret1"))
	b := Digest([]byte("secret1"))
	if a != b {
		t.Errorf("Digest should be deterministic: %q != %q", a, b)
	}
}

func TestDigest_FixedLengthLowercaseHex(t *testing.T) {
	for _, in := range []string{"", "a", strings.Repeat("x", 10000)} {
		d := DigestString(in)
		if len(d) != DigestLength {
			t.Errorf("len(Digest(%d bytes)) = %d, want %d", len(in), len(d), DigestLength)
		}
		if strings.ToLower(d) != d {
			t.Errorf("digest should be lowercase: %q", d)
		}
	}
}

func TestDigest_DistinctInputs_DistinctOutputs(t *testing.T) {
	if DigestString("token-a") == DigestString("token-b") {
		t.Error("distinct inputs should not collide")
	}
}

func TestEqual(t *testing.T) {
	d := DigestString("x")
	if !Equal(d, DigestString("x")) {
		t.Error("Equal should return true for identical digests")
	}
	if Equal(d, DigestString("y")) {
		t.Error("Equal should return false for different digests")
	}
}

func TestDigestPasswordHasher_HashAndVerify(t *testing.T) {
	h := DigestPasswordHasher{}

	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash != DigestString("secret1") {
		t.Errorf("Hash() = %q, want digest of password", hash)
	}

	ok, err := h.Verify(hash, "secret1")
	if err != nil || !ok {
		t.Errorf("Verify(correct) = %v, %v, want true, nil", ok, err)
	}
	ok, err = h.Verify(hash, "wrong")
	if err != nil || ok {
		t.Errorf("Verify(wrong) = %v, %v, want false, nil", ok, err)
	}
}

func TestBcryptPasswordHasher_HashAndVerify(t *testing.T) {
	h := BcryptPasswordHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must not equal the plaintext")
	}

	ok, err := h.Verify(hash, "secret1")
	if err != nil || !ok {
		t.Errorf("Verify(correct) = %v, %v, want true, nil", ok, err)
	}
	ok, err = h.Verify(hash, "wrong")
	if err != nil || ok {
		t.Errorf("Verify(wrong) = %v, %v, want false, nil", ok, err)
	}
}

func TestBcryptPasswordHasher_LengthLimit(t *testing.T) {
	h := BcryptPasswordHasher{Cost: bcrypt.MinCost}

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"exactly 72 bytes", strings.Repeat("a", MaxBcryptPasswordBytes), false},
		{"73 bytes", strings.Repeat("a", MaxBcryptPasswordBytes+1), true},
		{"100 bytes", strings.Repeat("a", 100), true},
		// 25文字だがUTF-8で75バイト
		{"multibyte over 72 bytes", strings.Repeat("あ", 25), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := h.Hash(tt.password)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Hash() error = %v", err)
				}
				if ok, err := h.Verify(hash, tt.password); err != nil || !ok {
					t.Errorf("Verify() = %v, %v, want true, nil", ok, err)
				}
				return
			}
			if !errors.Is(err, ErrPasswordTooLong) {
				t.Errorf("Hash() error = %v, want ErrPasswordTooLong", err)
			}
		})
	}
}

func TestDigestPasswordHasher_LongPassword_Accepted(t *testing.T) {
	password := strings.Repeat("a", 128)
	hash, err := DigestPasswordHasher{}.Hash(password)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if ok, _ := (DigestPasswordHasher{}).Verify(hash, password); !ok {
		t.Error("Verify() should accept the original password")
	}
}

func TestBcryptPasswordHasher_MalformedHash_ReturnsError(t *testing.T) {
	h := BcryptPasswordHasher{Cost: bcrypt.MinCost}
	if _, err := h.Verify("not-a-bcrypt-hash", "secret1"); err == nil {
		t.Error("expected error for malformed hash")
	}
}

func TestNewPasswordHasher(t *testing.T) {
	if h, err := NewPasswordHasher(""); err != nil {
		t.Errorf("NewPasswordHasher(\"\") error = %v", err)
	} else if _, ok := h.(DigestPasswordHasher); !ok {
		t.Errorf("NewPasswordHasher(\"\") = %T, want DigestPasswordHasher", h)
	}

	if h, err := NewPasswordHasher("bcrypt"); err != nil {
		t.Errorf("NewPasswordHasher(bcrypt) error = %v", err)
	} else if _, ok := h.(BcryptPasswordHasher); !ok {
		t.Errorf("NewPasswordHasher(bcrypt) = %T, want BcryptPasswordHasher", h)
	}

	if _, err := NewPasswordHasher("md5"); err == nil {
		t.Error("expected error for unknown hasher")
	}
}

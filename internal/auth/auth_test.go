package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-32-bytes-long-1234567890"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "secret" || hash == "" {
		t.Fatalf("hash looks like plaintext: %q", hash)
	}
	if !VerifyPassword("secret", hash) {
		t.Error("VerifyPassword rejected the right password")
	}
	if VerifyPassword("Secret", hash) {
		t.Error("VerifyPassword accepted a wrong password")
	}
	if VerifyPassword("secret", "not-a-bcrypt-hash") {
		t.Error("VerifyPassword accepted a garbage hash")
	}

	again, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if again == hash {
		t.Error("expected salted hashes to differ")
	}
	if !VerifyPassword("secret", again) {
		t.Error("second hash does not verify")
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 73))
	if !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("want ErrPasswordTooLong, got %v", err)
	}
}

func TestUnknownUserHash(t *testing.T) {
	cost, err := bcrypt.Cost([]byte(UnknownUserHash))
	if err != nil {
		t.Fatalf("UnknownUserHash is not a bcrypt hash: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
	if VerifyPassword("secret", UnknownUserHash) {
		t.Error("UnknownUserHash matched an ordinary password")
	}
}

func TestTokenCodec_IssueAndValidate(t *testing.T) {
	codec := NewTokenCodec([]byte(testSecret), time.Hour)

	token, expiresAt, err := codec.Issue(42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if d := time.Until(expiresAt); d < 59*time.Minute || d > time.Hour+time.Minute {
		t.Errorf("unexpected expiry in %v", d)
	}

	userID, err := codec.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if userID != 42 {
		t.Errorf("userID = %d, want 42", userID)
	}
}

func TestTokenCodec_ValidateRejects(t *testing.T) {
	codec := NewTokenCodec([]byte(testSecret), time.Hour)

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "obviously.invalid.token"},
		{"legacy id:timestamp format", "1:1700000000"},
		{"empty", ""},
		{"wrong secret", sign(jwt.RegisteredClaims{Subject: "1", ExpiresAt: future},
			jwt.SigningMethodHS256, []byte("another-secret-another-secret-123"))},
		{"expired", sign(jwt.RegisteredClaims{Subject: "1", ExpiresAt: past},
			jwt.SigningMethodHS256, []byte(testSecret))},
		{"missing exp", sign(jwt.RegisteredClaims{Subject: "1"},
			jwt.SigningMethodHS256, []byte(testSecret))},
		{"missing sub", sign(jwt.RegisteredClaims{ExpiresAt: future},
			jwt.SigningMethodHS256, []byte(testSecret))},
		{"non-numeric sub", sign(jwt.RegisteredClaims{Subject: "alice", ExpiresAt: future},
			jwt.SigningMethodHS256, []byte(testSecret))},
		{"zero sub", sign(jwt.RegisteredClaims{Subject: "0", ExpiresAt: future},
			jwt.SigningMethodHS256, []byte(testSecret))},
		{"other HMAC algorithm", sign(jwt.RegisteredClaims{Subject: "1", ExpiresAt: future},
			jwt.SigningMethodHS512, []byte(testSecret))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Validate(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("want ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenCodec_ExpiresAfterTTL(t *testing.T) {
	codec := NewTokenCodec([]byte(testSecret), time.Minute)
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return issued }

	token, _, err := codec.Issue(5)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	codec.now = func() time.Time { return issued.Add(30 * time.Second) }
	if _, err := codec.Validate(token); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	codec.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := codec.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("token should have expired, got %v", err)
	}
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header, want string
	}{
		{"Bearer abc.def", "abc.def"},
		{"abc.def", "abc.def"},
		{"bearer abc", "bearer abc"},
		{"Bearer ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractBearer(tt.header); got != tt.want {
			t.Errorf("ExtractBearer(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

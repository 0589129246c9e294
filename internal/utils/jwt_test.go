package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "HS256", time.Hour)
	id := uuid.New()

	token, err := m.GenerateToken(id, "ada@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != id || claims.Email != "ada@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTRejectsForeignAndExpiredTokens(t *testing.T) {
	m := NewJWTManager("secret", "HS256", time.Hour)
	other := NewJWTManager("other", "HS256", time.Hour)
	token, _ := other.GenerateToken(uuid.New(), "x@example.com")
	if _, err := m.ValidateToken(token); err == nil {
		t.Fatalf("token signed with another key accepted")
	}

	expired := NewJWTManager("secret", "HS256", -time.Minute)
	token, _ = expired.GenerateToken(uuid.New(), "x@example.com")
	if _, err := m.ValidateToken(token); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if CheckPassword("correct horse", hash) != nil {
		t.Fatalf("valid password rejected")
	}
	if CheckPassword("wrong", hash) == nil {
		t.Fatalf("wrong password accepted")
	}
}

func TestValidateStruct(t *testing.T) {
	type req struct {
		Email    string `binding:"required,email"`
		Password string `binding:"required,min=8"`
		Confirm  string `binding:"eqfield=Password"`
	}
	if err := ValidateStruct(req{Email: "a@b.co", Password: "12345678", Confirm: "12345678"}); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}
	err := ValidateStruct(req{Email: "nope", Password: "123", Confirm: "x"})
	if err == nil {
		t.Fatalf("invalid struct accepted")
	}
	want := "Email must be a valid email address; Password must be at least 8; Confirm must match Password"
	if err.Error() != want {
		t.Fatalf("message = %q", err.Error())
	}
}

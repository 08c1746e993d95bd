package auth

import (
	"testing"
)

func TestHashPassword(t *testing.T) {
	password := "testpassword123"

	hashed, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if hashed == "" {
		t.Error("Hashed password should not be empty")
	}

	if hashed == password {
		t.Error("Hashed password should be different from original")
	}

	hashed2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password second time: %v", err)
	}

	if hashed == hashed2 {
		t.Error("Different hashes should be generated for same password (bcrypt salt)")
	}
}

func TestCheckPassword(t *testing.T) {
	hashed, err := HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if !CheckPassword(hashed, "testpassword123") {
		t.Error("Correct password should match")
	}

	if CheckPassword(hashed, "wrongpassword") {
		t.Error("Wrong password should not match")
	}

	if CheckPassword("!", "anything") {
		t.Error("Unusable hash should never match")
	}
}

package utils

import (
	"strings"
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the plain text password")
	}
	if !strings.HasPrefix(hash, "$2a$12$") {
		t.Fatalf("unexpected hash prefix in %q", hash)
	}

	if !ComparePassword(hash, "s3cret-pass") {
		t.Fatal("correct password should match")
	}
	if ComparePassword(hash, "wrong-pass") {
		t.Fatal("wrong password should not match")
	}
}

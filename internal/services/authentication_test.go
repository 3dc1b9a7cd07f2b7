package services

import (
	"testing"
	"time"

	"bskmt/internal/models"
)

func TestAuthenticationRoundTrip(t *testing.T) {
	authentication, err := NewAuthentication("test-secret")
	if err != nil {
		t.Fatal(err)
	}

	member := &models.Member{ID: "m-1", Email: "rider@club.example"}
	token, err := authentication.CreateToken(member, "member", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := authentication.Validate(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.ID != "m-1" || claims.Email != "rider@club.example" || claims.Role != "member" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAuthenticationRejects(t *testing.T) {
	authentication, _ := NewAuthentication("test-secret")
	other, _ := NewAuthentication("other-secret")

	member := &models.Member{ID: "m-1"}
	token, err := other.CreateToken(member, "member", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := authentication.Validate(token); err == nil {
		t.Error("token signed with a different secret should fail")
	}

	expired, err := authentication.CreateToken(member, "member", -time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := authentication.Validate(expired); err == nil {
		t.Error("expired token should fail")
	}

	if _, err := NewAuthentication(""); err == nil {
		t.Error("empty secret should be rejected")
	}
}

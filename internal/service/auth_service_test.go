package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SanduniLK/MediLink/internal/models"
	"github.com/SanduniLK/MediLink/internal/store"
	"github.com/SanduniLK/MediLink/pkg/utils"
)

func TestAuth(t *testing.T) {
	utils.InitJWT("test-access", "test-refresh", 15*time.Minute, 168*time.Hour)
	ctx := context.Background()
	svc := NewAuthService(store.NewMemoryStore())

	t.Run("register and login", func(t *testing.T) {
		resp, err := svc.Register(ctx, "Nimal Silva", "nimal@example.com", "secret123", models.RolePatient, "0771234567")
		if err != nil {
			t.Fatal(err)
		}
		if resp.AccessToken == "" || resp.RefreshToken == "" {
			t.Fatal("tokens missing")
		}
		if resp.User.Role != models.RolePatient {
			t.Fatalf("role %s", resp.User.Role)
		}

		claims, err := utils.ValidateAccessToken(resp.AccessToken)
		if err != nil {
			t.Fatal(err)
		}
		if claims.UserID != resp.User.ID || claims.Role != models.RolePatient {
			t.Fatalf("unexpected claims %+v", claims)
		}

		login, err := svc.Login(ctx, "nimal@example.com", "secret123")
		if err != nil {
			t.Fatal(err)
		}
		if login.User.ID != resp.User.ID {
			t.Fatal("login returned a different user")
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, "Other", "nimal@example.com", "secret123", models.RolePatient, "")
		if !errors.Is(err, ErrUserExists) {
			t.Fatalf("expected ErrUserExists, got %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "nimal@example.com", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := svc.Register(ctx, "X", "x@example.com", "secret123", "superuser", "")
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("refresh and logout", func(t *testing.T) {
		resp, err := svc.Register(ctx, "Kamala", "kamala@example.com", "secret123", models.RoleDoctor, "")
		if err != nil {
			t.Fatal(err)
		}

		access, err := svc.RefreshAccessToken(ctx, resp.RefreshToken)
		if err != nil {
			t.Fatal(err)
		}
		claims, err := utils.ValidateAccessToken(access)
		if err != nil {
			t.Fatal(err)
		}
		if claims.Role != models.RoleDoctor {
			t.Fatalf("role %s", claims.Role)
		}

		if err := svc.Logout(ctx, resp.RefreshToken); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.RefreshAccessToken(ctx, resp.RefreshToken); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("revoked token must not refresh, got %v", err)
		}
	})
}

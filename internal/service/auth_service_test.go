package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/polbel-next/internal/config"
	"github.com/polbel-next/internal/repository"
	"github.com/polbel-next/internal/schema"
)

func newAuthFixture(t *testing.T) (*AuthService, *gatewayFixture) {
	t.Helper()
	f := newGatewayFixture(t)
	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret", ExpireHours: 1},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8, RequireNumber: true},
		},
	}
	auth := NewAuthService(cfg, repository.NewAdminRepository(f.db))
	f.entities.Use(schema.EntityAdminUser, EntityHooks{AfterDelete: auth.RevokeAdmin})
	return auth, f
}

func TestRegisterAndLogin(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	admin, err := auth.RegisterAdmin(RegisterAdminInput{Name: "Ola", Email: " Ola@Example.com ", Password: "sekret123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if admin.Email != "ola@example.com" {
		t.Fatalf("email should be normalized, got %s", admin.Email)
	}

	got, token, expiresAt, err := auth.Login(ctx, "OLA@example.com", "sekret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || got.ID != admin.ID || got.LastLoginAt == nil {
		t.Fatalf("unexpected login result: %+v %q", got, token)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("token already expired")
	}

	actor, err := auth.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if !actor.IsAdmin() || actor.Email != "ola@example.com" {
		t.Fatalf("unexpected actor %+v", actor)
	}

	if _, _, _, err := auth.Login(ctx, "ola@example.com", "wrong-pass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials got %v", err)
	}
	if _, _, _, err := auth.Login(ctx, "nobody@example.com", "sekret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials for unknown email got %v", err)
	}
}

func TestRegisterAdminValidation(t *testing.T) {
	auth, _ := newAuthFixture(t)

	cases := []struct {
		name  string
		input RegisterAdminInput
		want  error
	}{
		{"missing name", RegisterAdminInput{Email: "a@example.com", Password: "sekret123"}, ErrValidation},
		{"bad email", RegisterAdminInput{Name: "a", Email: "not-mail", Password: "sekret123"}, ErrValidation},
		{"short password", RegisterAdminInput{Name: "a", Email: "a@example.com", Password: "abc1"}, ErrWeakPassword},
		{"no digit", RegisterAdminInput{Name: "a", Email: "a@example.com", Password: "abcdefghij"}, ErrWeakPassword},
	}
	for _, tc := range cases {
		if _, err := auth.RegisterAdmin(tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, err)
		}
	}

	if _, err := auth.RegisterAdmin(RegisterAdminInput{Name: "a", Email: "dup@example.com", Password: "sekret123"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := auth.RegisterAdmin(RegisterAdminInput{Name: "b", Email: "DUP@example.com", Password: "sekret123"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("want ErrEmailExists got %v", err)
	}
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	auth, f := newAuthFixture(t)
	ctx := context.Background()

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := auth.Authenticate(ctx, token); !errors.Is(err, ErrForbidden) {
			t.Fatalf("token %q: want ErrForbidden got %v", token, err)
		}
	}

	admin, err := auth.RegisterAdmin(RegisterAdminInput{Name: "Ola", Email: "ola@example.com", Password: "sekret123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	token, _, err := auth.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	other := NewAuthService(&config.Config{JWT: config.JWTConfig{SecretKey: "other"}}, repository.NewAdminRepository(f.db))
	if _, err := other.Authenticate(ctx, token); !errors.Is(err, ErrForbidden) {
		t.Fatalf("token signed with another secret must fail, got %v", err)
	}

	auth.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	expired, _, err := auth.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("generate expired failed: %v", err)
	}
	if _, err := auth.Authenticate(ctx, expired); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expired token must fail, got %v", err)
	}
}

func TestDeletedAdminLosesAccess(t *testing.T) {
	auth, f := newAuthFixture(t)
	ctx := context.Background()

	admin, err := auth.RegisterAdmin(RegisterAdminInput{Name: "Ola", Email: "ola@example.com", Password: "sekret123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, token, _, err := auth.Login(ctx, "ola@example.com", "sekret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := f.entities.Delete(ctx, schema.EntityAdminUser, toIdent(admin.ID)); err != nil {
		t.Fatalf("delete admin failed: %v", err)
	}
	if _, err := auth.Authenticate(ctx, token); !errors.Is(err, ErrForbidden) {
		t.Fatalf("deleted admin must be rejected, got %v", err)
	}
}

func TestAdminListHidesPasswordHash(t *testing.T) {
	auth, f := newAuthFixture(t)
	if _, err := auth.RegisterAdmin(RegisterAdminInput{Name: "Ola", Email: "ola@example.com", Password: "sekret123"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	rows, err := f.entities.List(context.Background(), schema.EntityAdminUser, nil, adminActor)
	if err != nil {
		t.Fatalf("list admins failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want 1 admin got %d", len(rows))
	}
	if _, ok := rows[0]["password_hash"]; ok {
		t.Fatalf("password hash must never be returned")
	}
	if rows[0]["email"] != "ola@example.com" {
		t.Fatalf("unexpected admin row %v", rows[0])
	}
}

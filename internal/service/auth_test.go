package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"ravewall/internal/config"
	"ravewall/internal/model"
)

type mockUserRepository struct {
	createFn        func(ctx context.Context, user *model.User) error
	getByIDFn       func(ctx context.Context, id int64) (*model.User, error)
	getByEmailFn    func(ctx context.Context, email string) (*model.User, error)
	existsByEmailFn func(ctx context.Context, email string) (bool, error)
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test-secret",
		AccessTokenMaxAge: 3600,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := &mockUserRepository{}
	svc := NewAuthService(repo, testConfig())

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "  Alice@Example.COM ",
		Password: "securepassword",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercase trimmed", user.Email)
	}
	if user.PasswordHashed == "securepassword" {
		t.Error("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte("securepassword")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := NewAuthService(&mockUserRepository{}, testConfig())

	tests := []struct {
		name string
		req  model.RegisterRequest
	}{
		{"empty email", model.RegisterRequest{Email: "", Password: "securepassword"}},
		{"email without at sign", model.RegisterRequest{Email: "not-an-email", Password: "securepassword"}},
		{"short password", model.RegisterRequest{Email: "a@b.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), &tt.req); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestAuthService_Register_EmailExists(t *testing.T) {
	repo := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := NewAuthService(repo, testConfig())

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "taken@example.com",
		Password: "securepassword",
	})
	if !errors.Is(err, model.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got: %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	repo := &mockUserRepository{
		getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if email == "alice@example.com" {
				return &model.User{ID: 1, Email: email, PasswordHashed: string(hashed)}, nil
			}
			return nil, model.ErrUserNotFound
		},
	}
	svc := NewAuthService(repo, testConfig())

	t.Run("success", func(t *testing.T) {
		user, err := svc.Login(context.Background(), &model.LoginRequest{
			Email:    "Alice@Example.com",
			Password: "correct-password",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID != 1 {
			t.Errorf("user id = %d, want 1", user.ID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), &model.LoginRequest{
			Email:    "alice@example.com",
			Password: "wrong",
		})
		if !errors.Is(err, model.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
		}
	})

	t.Run("unknown email maps to same error", func(t *testing.T) {
		_, err := svc.Login(context.Background(), &model.LoginRequest{
			Email:    "nobody@example.com",
			Password: "correct-password",
		})
		if !errors.Is(err, model.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got: %v", err)
		}
	})
}

func TestAuthService_GenerateAccessToken(t *testing.T) {
	svc := NewAuthService(&mockUserRepository{}, testConfig())

	tokenString, err := svc.GenerateAccessToken(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		t.Fatal("token invalid")
	}
	if got := int64(claims["user_id"].(float64)); got != 42 {
		t.Errorf("user_id claim = %d, want 42", got)
	}
}

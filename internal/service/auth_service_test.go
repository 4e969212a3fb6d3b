package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/repository"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User), nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return nil, repository.ErrDuplicateEntry
	}
	user.ID = r.nextID
	r.nextID++
	copied := *user
	r.users[user.Username] = &copied
	return user, nil
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id int) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func TestAuthService(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), "test-secret", time.Hour)
	ctx := context.Background()

	t.Run("register defaults to the operator role", func(t *testing.T) {
		user, err := svc.Register(ctx, domain.RegisterUserDTO{
			Username: "gatekeeper",
			Password: "secret123",
			Role:     "superuser",
		})
		if err != nil {
			t.Fatalf("register failed: %v", err)
		}
		if user.Role != "operator" {
			t.Errorf("expected role 'operator', got %q", user.Role)
		}
		if user.Password != "" {
			t.Error("expected password to be stripped from the response")
		}
	})

	t.Run("register rejects a taken username", func(t *testing.T) {
		_, err := svc.Register(ctx, domain.RegisterUserDTO{Username: "gatekeeper", Password: "other456"})
		if !errors.Is(err, ErrUserAlreadyExists) {
			t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
		}
	})

	t.Run("login issues a token that validates", func(t *testing.T) {
		resp, err := svc.Login(ctx, domain.LoginUserDTO{Username: "gatekeeper", Password: "secret123"})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if resp.Token == "" {
			t.Fatal("expected a signed token")
		}
		_, claims, err := svc.ValidateToken(resp.Token)
		if err != nil {
			t.Fatalf("token did not validate: %v", err)
		}
		if claims["username"] != "gatekeeper" || claims["role"] != "operator" {
			t.Errorf("unexpected claims: %v", claims)
		}
	})

	t.Run("login rejects a wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, domain.LoginUserDTO{Username: "gatekeeper", Password: "wrong"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("login rejects an unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, domain.LoginUserDTO{Username: "ghost", Password: "secret123"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("a token signed with another secret is rejected", func(t *testing.T) {
		other := NewAuthService(newFakeUserRepo(), "other-secret", time.Hour)
		if _, err := other.Register(ctx, domain.RegisterUserDTO{Username: "gatekeeper", Password: "secret123"}); err != nil {
			t.Fatalf("register failed: %v", err)
		}
		resp, err := other.Login(ctx, domain.LoginUserDTO{Username: "gatekeeper", Password: "secret123"})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if _, _, err := svc.ValidateToken(resp.Token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid, got %v", err)
		}
	})

	t.Run("an expired token is rejected", func(t *testing.T) {
		expired := NewAuthService(newFakeUserRepo(), "test-secret", -time.Minute)
		if _, err := expired.Register(ctx, domain.RegisterUserDTO{Username: "late", Password: "secret123"}); err != nil {
			t.Fatalf("register failed: %v", err)
		}
		resp, err := expired.Login(ctx, domain.LoginUserDTO{Username: "late", Password: "secret123"})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if _, _, err := svc.ValidateToken(resp.Token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected ErrTokenInvalid for an expired token, got %v", err)
		}
	})
}

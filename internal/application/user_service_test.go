package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence"
)

func plainHash(password string) (string, error) {
	return "hashed:" + password, nil
}

func TestUserServiceCreateUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	admin := Principal{UserID: "admin", Role: RoleAdmin}

	t.Run("normalizes and hashes", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepoStub()
		service := NewUserService(repo, plainHash, func() string { return "u-1" }, fixedNow)

		got, err := service.CreateUser(ctx, CreateUserParams{
			Principal: admin,
			Input: UserInput{
				Name:     "  Maria   Souza ",
				Email:    " Maria@Escola.Test ",
				Password: "segredo123",
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.ID != "u-1" || got.Name != "Maria Souza" || got.Email != "maria@escola.test" {
			t.Fatalf("unexpected user: %#v", got)
		}
		if got.Role != RoleUser {
			t.Fatalf("expected default role, got %q", got.Role)
		}
		if repo.hashes["u-1"] != "hashed:segredo123" {
			t.Fatalf("unexpected stored hash %q", repo.hashes["u-1"])
		}
	})

	t.Run("validates fields", func(t *testing.T) {
		t.Parallel()
		service := NewUserService(newUserRepoStub(), plainHash, nil, fixedNow)
		avatar := "ftp://imagens/avatar.png"
		_, err := service.CreateUser(ctx, CreateUserParams{
			Principal: admin,
			Input:     UserInput{Email: "Maria <maria@escola.test>", Role: "Diretor", Password: "curta", Avatar: &avatar},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"name", "email", "role", "password", "avatar"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %#v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepoStub()
		repo.createErr = persistence.ErrDuplicate
		service := NewUserService(repo, plainHash, nil, fixedNow)
		_, err := service.CreateUser(ctx, CreateUserParams{
			Principal: admin,
			Input:     UserInput{Name: "Maria", Email: "maria@escola.test", Password: "segredo123"},
		})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["email"] == "" {
			t.Fatalf("expected email field error, got %v", err)
		}
	})

	t.Run("requires administrator", func(t *testing.T) {
		t.Parallel()
		service := NewUserService(newUserRepoStub(), plainHash, nil, fixedNow)
		_, err := service.CreateUser(ctx, CreateUserParams{Principal: Principal{UserID: "u1", Role: RoleUser}})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestUserServiceUpdateUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	admin := Principal{UserID: "admin", Role: RoleAdmin}
	seed := []User{
		{ID: "admin", Name: "Admin", Email: "admin@escola.test", Role: RoleAdmin},
		{ID: "u1", Name: "Maria", Email: "maria@escola.test", Role: RoleUser},
	}

	t.Run("blank password keeps hash", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepoStub(seed...)
		service := NewUserService(repo, plainHash, nil, fixedNow)
		got, err := service.UpdateUser(ctx, UpdateUserParams{
			Principal: admin,
			UserID:    "u1",
			Input:     UserInput{Name: "Maria S.", Email: "maria@escola.test", Role: RoleAdmin},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Role != RoleAdmin || got.Name != "Maria S." {
			t.Fatalf("unexpected user: %#v", got)
		}
		if repo.hashes["u1"] != "seed-hash" {
			t.Fatalf("expected hash kept, got %q", repo.hashes["u1"])
		}
	})

	t.Run("new password is hashed", func(t *testing.T) {
		t.Parallel()
		repo := newUserRepoStub(seed...)
		service := NewUserService(repo, plainHash, nil, fixedNow)
		_, err := service.UpdateUser(ctx, UpdateUserParams{
			Principal: admin,
			UserID:    "u1",
			Input:     UserInput{Name: "Maria", Email: "maria@escola.test", Password: "novasenha1"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if repo.hashes["u1"] != "hashed:novasenha1" {
			t.Fatalf("unexpected hash %q", repo.hashes["u1"])
		}
	})

	t.Run("administrators keep their own role", func(t *testing.T) {
		t.Parallel()
		service := NewUserService(newUserRepoStub(seed...), plainHash, nil, fixedNow)
		_, err := service.UpdateUser(ctx, UpdateUserParams{
			Principal: admin,
			UserID:    "admin",
			Input:     UserInput{Name: "Admin", Email: "admin@escola.test", Role: RoleUser},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["role"] == "" {
			t.Fatalf("expected role validation error, got %v", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		t.Parallel()
		service := NewUserService(newUserRepoStub(seed...), plainHash, nil, fixedNow)
		_, err := service.UpdateUser(ctx, UpdateUserParams{Principal: admin, UserID: "ghost"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserServiceDeleteGetList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	admin := Principal{UserID: "admin", Role: RoleAdmin}
	user := Principal{UserID: "u1", Role: RoleUser}
	repo := newUserRepoStub(
		User{ID: "admin", Name: "Zélia", Role: RoleAdmin},
		User{ID: "u1", Name: "ana", Role: RoleUser},
		User{ID: "u2", Name: "Bruno", Role: RoleUser},
	)
	service := NewUserService(repo, plainHash, nil, fixedNow)

	list, err := service.ListUsers(ctx, admin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 3 || list[0].ID != "u1" || list[1].ID != "u2" || list[2].ID != "admin" {
		t.Fatalf("expected case-insensitive name order, got %#v", list)
	}
	if _, err := service.ListUsers(ctx, user); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if _, err := service.GetUser(ctx, user, "u1"); err != nil {
		t.Fatalf("expected self lookup to succeed: %v", err)
	}
	if _, err := service.GetUser(ctx, user, "u2"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	var vErr *ValidationError
	if err := service.DeleteUser(ctx, admin, "admin"); !errors.As(err, &vErr) {
		t.Fatalf("expected self delete to be rejected, got %v", err)
	}
	if err := service.DeleteUser(ctx, admin, "u2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.deleted != "u2" {
		t.Fatalf("expected u2 deleted, got %q", repo.deleted)
	}
	if err := service.DeleteUser(ctx, admin, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	repo.deleteErr = fmt.Errorf("%w: FOREIGN KEY constraint failed", persistence.ErrForeignKeyViolation)
	vErr = nil
	if err := service.DeleteUser(ctx, admin, "u1"); !errors.As(err, &vErr) || vErr.FieldErrors["id"] == "" {
		t.Fatalf("expected user with reservations to be kept, got %v", err)
	}
	if _, ok := repo.users["u1"]; !ok {
		t.Fatalf("expected u1 kept")
	}
}

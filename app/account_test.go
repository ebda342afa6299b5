package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Heht571/LLMRouter/adapters/clock"
	"github.com/Heht571/LLMRouter/adapters/hasher"
	"github.com/Heht571/LLMRouter/adapters/idgen"
	"github.com/Heht571/LLMRouter/adapters/memory"
	"github.com/Heht571/LLMRouter/app"
	"github.com/Heht571/LLMRouter/ports"
)

func newAccountService() (*app.AccountService, *memory.AccountStore) {
	store := memory.NewAccountStore()
	svc := app.NewAccountService(app.AccountDeps{
		Accounts: store,
		Hasher:   hasher.Fake{},
		IDGen:    idgen.NewSequential("acc"),
		Clock:    clock.NewFake(testTime),
	})
	return svc, store
}

func validRegister() app.RegisterParams {
	return app.RegisterParams{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
		Role:     ports.RoleSeller,
	}
}

func TestRegister(t *testing.T) {
	svc, _ := newAccountService()

	account, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if account.ID == "" {
		t.Error("ID is empty")
	}
	if account.Username != "alice" || account.Role != ports.RoleSeller {
		t.Errorf("account = %+v", account)
	}
	if !account.CreatedAt.Equal(testTime) {
		t.Errorf("CreatedAt = %v, want %v", account.CreatedAt, testTime)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*app.RegisterParams)
		wantReason string
	}{
		{"empty username", func(p *app.RegisterParams) { p.Username = " " }, "empty_username"},
		{"bad email", func(p *app.RegisterParams) { p.Email = "nope" }, "invalid_email"},
		{"short password", func(p *app.RegisterParams) { p.Password = "short" }, "password_too_short"},
		{"bad role", func(p *app.RegisterParams) { p.Role = "admin" }, "invalid_role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newAccountService()
			p := validRegister()
			tt.mutate(&p)

			_, err := svc.Register(context.Background(), p)
			var verr app.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", verr.Reason, tt.wantReason)
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newAccountService()
	if _, err := svc.Register(context.Background(), validRegister()); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	p := validRegister()
	p.Email = "other@example.com"
	_, err := svc.Register(context.Background(), p)
	if !errors.Is(err, app.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newAccountService()
	if _, err := svc.Register(context.Background(), validRegister()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	account, err := svc.Login(context.Background(), "alice", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if account.Username != "alice" {
		t.Errorf("Username = %q", account.Username)
	}

	// Wrong password and unknown user return the same error
	if _, err := svc.Login(context.Background(), "alice", "wrong-password"); !errors.Is(err, app.ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "nobody", "hunter2hunter2"); !errors.Is(err, app.ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAccountService()
	account, err := svc.Register(context.Background(), validRegister())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), account.ID, "wrong", "newpassword1"); !errors.Is(err, app.ErrInvalidCredentials) {
		t.Errorf("wrong current: err = %v, want ErrInvalidCredentials", err)
	}
	if err := svc.ChangePassword(context.Background(), account.ID, "hunter2hunter2", "tiny"); err == nil {
		t.Error("short new password accepted")
	}
	if err := svc.ChangePassword(context.Background(), account.ID, "hunter2hunter2", "newpassword1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := svc.Login(context.Background(), "alice", "newpassword1"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := svc.Login(context.Background(), "alice", "hunter2hunter2"); !errors.Is(err, app.ErrInvalidCredentials) {
		t.Error("old password still accepted")
	}
}

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/expense-tracker/internal/auth"
	"github.com/mmynk/expense-tracker/internal/docstore"
	"github.com/mmynk/expense-tracker/internal/models"
	"github.com/mmynk/expense-tracker/internal/repository"
	"github.com/mmynk/expense-tracker/internal/settlement"
	"github.com/mmynk/expense-tracker/internal/storage/jsonfile"
)

type testEnv struct {
	store         *docstore.Store
	repos         *repository.Repositories
	auth          *AuthService
	expenses      *ExpenseService
	groups        *GroupService
	groupExpenses *GroupExpenseService
}

// setupServices wires every service against a fresh JSON file store.
func setupServices(t *testing.T) *testEnv {
	t.Helper()

	backend, err := jsonfile.New(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	store, err := docstore.Open(context.Background(), backend)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := repository.New(store)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	return &testEnv{
		store:         store,
		repos:         repos,
		auth:          NewAuthService(auth.NewPasswordAuthenticator(repos.Users), jwtManager, repos.Users, logger),
		expenses:      NewExpenseService(repos, logger),
		groups:        NewGroupService(repos, logger),
		groupExpenses: NewGroupExpenseService(repos, settlement.NewEngine(repos), settlement.NewAggregator(repos), logger),
	}
}

// user creates an account directly in the repository, skipping bcrypt.
func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := e.repos.Users.Create(context.Background(), name+"@example.com", "hash", name)
	if err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return u
}

func wantErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

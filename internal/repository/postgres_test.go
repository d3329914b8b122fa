package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OmarVCRZ/theSobieCo/internal/db"
	"github.com/OmarVCRZ/theSobieCo/internal/model"
)

func openTestDB(t *testing.T) *pgxpool.Pool {
	url := os.Getenv("SOBIE_TEST_DB")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("SOBIE_TEST_DB or DATABASE_URL not set")
		return nil
	}
	pool, err := db.NewPool(context.Background(), url)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	return pool
}

func TestPostgresDuplicateEmail(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	store := NewStore(pool)
	ctx := context.Background()

	account := newAccount("pg-dup@example.org", model.RoleAttendee, nil)
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create error: %v", err)
	}
	err := store.CreateAccount(ctx, newAccount("pg-dup@example.org", model.RoleAdmin, nil))
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestPostgresConsumeTokenSingleUse(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	store := NewStore(pool)
	ctx := context.Background()

	token := "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"
	account := newAccount("pg-consume@example.org", model.RoleAttendee, &token)
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create error: %v", err)
	}

	got, err := store.ConsumeToken(ctx, token)
	if err != nil {
		t.Fatalf("consume error: %v", err)
	}
	if got.ID != account.ID || got.VerificationToken != nil {
		t.Fatalf("unexpected consume result: %+v", got)
	}
	if _, err := store.ConsumeToken(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on replay, got %v", err)
	}
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OmarVCRZ/theSobieCo/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const accountColumns = `id, username, email, password_hash, role, verification_token,
	has_research, research_title, research_abstract, co_authors, session_preference,
	created_at, updated_at`

func (s *Store) CreateAccount(ctx context.Context, account model.Account) error {
	coAuthors := account.CoAuthors
	if coAuthors == nil {
		coAuthors = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, role, verification_token,
			has_research, research_title, research_abstract, co_authors, session_preference,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, account.ID, account.Username, account.Email, account.PasswordHash, account.Role,
		account.VerificationToken, account.HasResearch, account.ResearchTitle,
		account.ResearchAbstract, coAuthors, account.SessionPreference,
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = $1
	`, email)
	return scanAccount(row)
}

func (s *Store) GetAccountByID(ctx context.Context, id string) (model.Account, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id)
	return scanAccount(row)
}

func (s *Store) SetVerificationToken(ctx context.Context, accountID, token string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET verification_token = $1, updated_at = $2
		WHERE id = $3
	`, token, time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeToken is a single conditional update so that concurrent
// attempts on the same token serialize in the database: the second one
// matches zero rows.
func (s *Store) ConsumeToken(ctx context.Context, token string) (model.Account, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE accounts
		SET verification_token = NULL, updated_at = $2
		WHERE verification_token = $1
		RETURNING `+accountColumns+`
	`, token, time.Now().UTC())
	return scanAccount(row)
}

func (s *Store) UpdateUsername(ctx context.Context, accountID, username string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET username = $1, updated_at = $2
		WHERE id = $3
	`, username, time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateResearch(ctx context.Context, accountID string, research model.Research) error {
	coAuthors := research.CoAuthors
	if coAuthors == nil {
		coAuthors = []string{}
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts
		SET has_research = true,
			research_title = $1,
			research_abstract = $2,
			co_authors = $3,
			session_preference = $4,
			updated_at = $5
		WHERE id = $6
	`, research.Title, research.Abstract, coAuthors, research.SessionPreference,
		time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var account model.Account
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.VerificationToken,
		&account.HasResearch,
		&account.ResearchTitle,
		&account.ResearchAbstract,
		&account.CoAuthors,
		&account.SessionPreference,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Account{}, ErrNotFound
	}
	return account, err
}

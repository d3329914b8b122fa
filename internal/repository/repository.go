package repository

import (
	"context"
	"errors"

	"github.com/OmarVCRZ/theSobieCo/internal/model"
)

var (
	// ErrNotFound covers missing accounts and unknown or already
	// consumed verification tokens.
	ErrNotFound = errors.New("account not found")

	// ErrDuplicateEmail is returned when a signup reuses a registered
	// email. The insert leaves no partial write behind.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Directory is the durable account store. Exactly one account exists
// per email, and token consumption is atomic: of two concurrent
// ConsumeToken calls with the same token, at most one succeeds.
type Directory interface {
	CreateAccount(ctx context.Context, account model.Account) error
	GetAccountByEmail(ctx context.Context, email string) (model.Account, error)
	GetAccountByID(ctx context.Context, id string) (model.Account, error)

	// SetVerificationToken overwrites the account's outstanding
	// challenge, if any. Last issued wins; there is one token slot per
	// account, shared by signup confirmation and login challenges.
	SetVerificationToken(ctx context.Context, accountID, token string) error

	// ConsumeToken clears the matching account's token and returns the
	// account in the same operation. ErrNotFound when no account holds
	// the token.
	ConsumeToken(ctx context.Context, token string) (model.Account, error)

	UpdateUsername(ctx context.Context, accountID, username string) error
	UpdateResearch(ctx context.Context, accountID string, research model.Research) error
}

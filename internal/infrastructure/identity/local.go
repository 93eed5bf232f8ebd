package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/domain"
	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/pkg/id"
)

type accountStore interface {
	Put(ctx context.Context, a *domain.LocalAccount) error
	GetByIdentifier(ctx context.Context, identifier string) (*domain.LocalAccount, error)
	UpdatePasswordHash(ctx context.Context, accountID, hash string, at time.Time) error
}

// Local keeps accounts in the service's own table. Used for development and
// self-hosting without the hosted provider.
type Local struct {
	accounts accountStore
	cost     int
	now      func() time.Time
}

func NewLocal(accounts accountStore) *Local {
	return &Local{
		accounts: accounts,
		cost:     bcrypt.DefaultCost,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (l *Local) FindAccount(ctx context.Context, ident domain.Identifier) (*domain.Account, error) {
	a, err := l.accounts.GetByIdentifier(ctx, ident.Value)
	if err != nil {
		return nil, err
	}
	acct := a.Account
	return &acct, nil
}

// CreateAccount rejects known identifiers early. The store's Put is the
// authoritative uniqueness check for concurrent signups.
func (l *Local) CreateAccount(ctx context.Context, ident domain.Identifier, password string) (*domain.Account, error) {
	if _, err := l.accounts.GetByIdentifier(ctx, ident.Value); err == nil {
		return nil, fmt.Errorf("account already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := l.now()
	a := &domain.LocalAccount{
		Account:      domain.Account{ID: id.NewAccountID(), CreatedAt: now},
		Identifier:   ident.Value,
		PasswordHash: string(hash),
		UpdatedAt:    now,
	}
	if ident.IsPhone() {
		a.Phone = ident.Value
	} else {
		a.Email = ident.Value
	}
	if err := l.accounts.Put(ctx, a); err != nil {
		return nil, err
	}
	acct := a.Account
	return &acct, nil
}

func (l *Local) UpdatePassword(ctx context.Context, accountID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return l.accounts.UpdatePasswordHash(ctx, accountID, string(hash), l.now())
}

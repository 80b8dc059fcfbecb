package accounts

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emberbank/emberbank/internal/platform/cache"
	"github.com/emberbank/emberbank/internal/shared"
)

const numberGenerateRetries = 5

// Service owns account lifecycle: creation, snapshot reads through the
// cache, metadata updates, and administrative deletion.
type Service struct {
	repo     Repository
	cache    *cache.Store
	logger   *slog.Logger
	snapTTL  time.Duration
	now      func() time.Time
	numberFn func() string
}

// NewService builds the account service. ttl bounds cached snapshots.
func NewService(repo Repository, store *cache.Store, logger *slog.Logger, ttl time.Duration) *Service {
	return &Service{
		repo:     repo,
		cache:    store,
		logger:   logger,
		snapTTL:  ttl,
		now:      time.Now,
		numberFn: newAccountNumber,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateInput groups fields required to open an account.
type CreateInput struct {
	OwnerID  uuid.UUID
	Type     AccountType
	Currency string
}

// Create opens a new zero-balance account with a unique generated number.
// An owner may hold at most one account per type.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	if in.OwnerID == uuid.Nil {
		return Account{}, errors.New("accounts: owner required")
	}
	if !ValidType(in.Type) {
		return Account{}, errors.New("accounts: unknown account type")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return Account{}, errors.New("accounts: currency must be a 3-letter code")
	}

	exists, err := s.repo.OwnerHasType(ctx, in.OwnerID, in.Type)
	if err != nil {
		return Account{}, err
	}
	if exists {
		return Account{}, shared.ErrDuplicateAccountType
	}

	account := Account{
		ID:        uuid.New(),
		OwnerID:   in.OwnerID,
		Type:      in.Type,
		Currency:  currency,
		Balance:   decimal.Zero,
		CreatedAt: s.now().UTC(),
	}

	for attempt := 0; attempt < numberGenerateRetries; attempt++ {
		number := s.numberFn()
		taken, err := s.repo.NumberExists(ctx, number)
		if err != nil {
			return Account{}, err
		}
		if taken {
			continue
		}
		account.Number = number
		err = s.repo.Create(ctx, account)
		if errors.Is(err, ErrNumberTaken) {
			// Raced another creation; draw again.
			continue
		}
		if err != nil {
			return Account{}, err
		}
		s.logger.Info("account created",
			slog.String("account_id", account.ID.String()),
			slog.String("number", account.Number),
			slog.String("type", string(account.Type)))
		return account, nil
	}
	return Account{}, errors.New("accounts: could not allocate a unique account number")
}

// Get resolves a reference to an account snapshot, read through the cache.
func (s *Service) Get(ctx context.Context, ref Ref) (Account, error) {
	if ref.IsZero() {
		return Account{}, shared.ErrAccountNotFound
	}
	key := s.snapshotKey(ref)
	var account Account
	err := s.cache.FetchJSON(ctx, key, &account, s.snapTTL, func(ctx context.Context) (any, error) {
		return s.repo.GetByRef(ctx, ref)
	})
	if err == nil {
		return account, nil
	}
	if errors.Is(err, shared.ErrAccountNotFound) {
		return Account{}, err
	}
	// Cache trouble degrades to a direct store read.
	s.logger.Warn("account cache read failed", slog.Any("error", err))
	return s.repo.GetByRef(ctx, ref)
}

// List returns every account held by an owner.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]Account, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// UpdateInput carries the mutable account metadata.
type UpdateInput struct {
	Type     AccountType
	Currency string
}

// UpdateMeta changes account type and/or currency. Only the account
// snapshot is invalidated; history pages stay untouched.
func (s *Service) UpdateMeta(ctx context.Context, ref Ref, in UpdateInput) (Account, error) {
	account, err := s.repo.GetByRef(ctx, ref)
	if err != nil {
		return Account{}, err
	}
	accountType := account.Type
	if in.Type != "" {
		if !ValidType(in.Type) {
			return Account{}, errors.New("accounts: unknown account type")
		}
		accountType = in.Type
	}
	currency := account.Currency
	if in.Currency != "" {
		currency = strings.ToUpper(strings.TrimSpace(in.Currency))
		if len(currency) != 3 {
			return Account{}, errors.New("accounts: currency must be a 3-letter code")
		}
	}
	if err := s.repo.UpdateMeta(ctx, account.ID, accountType, currency); err != nil {
		return Account{}, err
	}
	if err := s.cache.Delete(ctx, shared.AccountKey(account.ID), shared.AccountNumberKey(account.Number)); err != nil {
		s.logger.Warn("account snapshot invalidation failed", slog.Any("error", err))
	}
	account.Type = accountType
	account.Currency = currency
	return account, nil
}

// Delete removes an account. Accounts with recorded transactions are
// refused; the durable history must outlive its administrative removal.
func (s *Service) Delete(ctx context.Context, ref Ref) error {
	account, err := s.repo.GetByRef(ctx, ref)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, account.ID); err != nil {
		return err
	}
	if err := s.cache.DeleteByPrefix(ctx,
		shared.AccountKey(account.ID),
		shared.AccountNumberKey(account.Number),
		shared.HistoryPrefix(account.ID),
		shared.ExportPrefix(account.ID),
	); err != nil {
		s.logger.Warn("account cache invalidation failed", slog.Any("error", err))
	}
	return nil
}

func (s *Service) snapshotKey(ref Ref) string {
	if id, ok := ref.ID(); ok {
		return shared.AccountKey(id)
	}
	number, _ := ref.Number()
	return shared.AccountNumberKey(number)
}

// newAccountNumber draws a random 10-digit account number.
func newAccountNumber() string {
	n := rand.Int63n(9_000_000_000) + 1_000_000_000
	return strconv.FormatInt(n, 10)
}

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emberbank/emberbank/internal/accounts"
	"github.com/emberbank/emberbank/internal/observability"
	"github.com/emberbank/emberbank/internal/platform/cache"
	"github.com/emberbank/emberbank/internal/shared"
)

// Default descriptions applied when the caller omits one.
const (
	defaultDepositDescription  = "Deposit"
	defaultWithdrawDescription = "Withdrawal"
	defaultTransferDescription = "Transfer"
)

// ServiceConfig carries the ledger's tunables.
type ServiceConfig struct {
	// TransferMax caps a single transfer. Zero disables the ceiling.
	TransferMax decimal.Decimal
	// HistoryTTL bounds cached history pages.
	HistoryTTL time.Duration
}

// Service is the ledger core. It owns every balance mutation and
// transaction-record append, and keeps the cache coherent with the store.
type Service struct {
	repo    Repository
	cache   *cache.Store
	logger  *slog.Logger
	metrics *observability.Metrics
	cfg     ServiceConfig
	now     func() time.Time
}

// NewService builds the ledger service.
func NewService(repo Repository, store *cache.Store, logger *slog.Logger, metrics *observability.Metrics, cfg ServiceConfig) *Service {
	if cfg.HistoryTTL <= 0 {
		cfg.HistoryTTL = 5 * time.Minute
	}
	return &Service{repo: repo, cache: store, logger: logger, metrics: metrics, cfg: cfg, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Deposit credits amount to the account and appends one Deposit record.
// Balance write and record append commit as a single unit.
func (s *Service) Deposit(ctx context.Context, ref accounts.Ref, amount decimal.Decimal, description string) (Transaction, error) {
	if err := validAmount(amount); err != nil {
		s.metrics.ObserveLedgerOp("deposit", "rejected")
		return Transaction{}, err
	}
	description, err := normalizeDescription(description, defaultDepositDescription)
	if err != nil {
		return Transaction{}, err
	}

	var (
		record  Transaction
		touched accounts.Account
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.Account(ctx, ref)
		if err != nil {
			return err
		}
		account, err = tx.AccountForUpdate(ctx, account.ID)
		if err != nil {
			return err
		}
		newBalance := account.Balance.Add(amount)
		if err := tx.SetBalance(ctx, account.ID, newBalance); err != nil {
			return err
		}
		record = Transaction{
			ID:           uuid.New(),
			AccountID:    account.ID,
			Type:         TypeDeposit,
			Amount:       amount,
			Timestamp:    s.now().UTC(),
			Description:  description,
			Status:       StatusSuccess,
			BalanceAfter: newBalance,
		}
		touched = account
		return tx.Insert(ctx, record)
	})
	if err != nil {
		s.metrics.ObserveLedgerOp("deposit", outcome(err))
		return Transaction{}, err
	}

	s.invalidateAccount(ctx, touched)
	s.metrics.ObserveLedgerOp("deposit", "success")
	s.logger.Info("deposit applied",
		slog.String("account_id", record.AccountID.String()),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("balance", record.BalanceAfter.StringFixed(2)))
	return record, nil
}

// Withdraw debits amount from the account and appends one Withdrawal
// record. The insufficient-balance check runs against the locked row, so
// the balance cannot change between check and commit.
func (s *Service) Withdraw(ctx context.Context, ref accounts.Ref, amount decimal.Decimal, description string) (Transaction, error) {
	if err := validAmount(amount); err != nil {
		s.metrics.ObserveLedgerOp("withdraw", "rejected")
		return Transaction{}, err
	}
	description, err := normalizeDescription(description, defaultWithdrawDescription)
	if err != nil {
		return Transaction{}, err
	}

	var (
		record  Transaction
		touched accounts.Account
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.Account(ctx, ref)
		if err != nil {
			return err
		}
		account, err = tx.AccountForUpdate(ctx, account.ID)
		if err != nil {
			return err
		}
		if account.Balance.LessThan(amount) {
			return shared.ErrInsufficientBalance
		}
		newBalance := account.Balance.Sub(amount)
		if err := tx.SetBalance(ctx, account.ID, newBalance); err != nil {
			return err
		}
		record = Transaction{
			ID:           uuid.New(),
			AccountID:    account.ID,
			Type:         TypeWithdrawal,
			Amount:       amount,
			Timestamp:    s.now().UTC(),
			Description:  description,
			Status:       StatusSuccess,
			BalanceAfter: newBalance,
		}
		touched = account
		return tx.Insert(ctx, record)
	})
	if err != nil {
		s.metrics.ObserveLedgerOp("withdraw", outcome(err))
		return Transaction{}, err
	}

	s.invalidateAccount(ctx, touched)
	s.metrics.ObserveLedgerOp("withdraw", "success")
	s.logger.Info("withdrawal applied",
		slog.String("account_id", record.AccountID.String()),
		slog.String("amount", amount.StringFixed(2)),
		slog.String("balance", record.BalanceAfter.StringFixed(2)))
	return record, nil
}

// Transfer moves amount from the source account to the account addressed
// by destinationNumber. Both balance mutations and both records commit in
// one transaction; a reader never observes a half-applied transfer. Both
// sides are Transfer-typed with reciprocal counterparty numbers, so either
// history replays on its own.
func (s *Service) Transfer(ctx context.Context, sourceRef accounts.Ref, destinationNumber string, amount decimal.Decimal, description string) (Transaction, error) {
	if err := validAmount(amount); err != nil {
		s.metrics.ObserveLedgerOp("transfer", "rejected")
		return Transaction{}, err
	}
	if s.cfg.TransferMax.IsPositive() && amount.GreaterThan(s.cfg.TransferMax) {
		s.metrics.ObserveLedgerOp("transfer", "rejected")
		return Transaction{}, shared.ErrAmountTooLarge
	}
	description, err := normalizeDescription(description, defaultTransferDescription)
	if err != nil {
		return Transaction{}, err
	}

	var (
		debit        Transaction
		source, dest accounts.Account
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		source, err = tx.Account(ctx, sourceRef)
		if err != nil {
			return err
		}
		dest, err = tx.Account(ctx, accounts.ByNumber(destinationNumber))
		if err != nil {
			return err
		}
		if source.ID == dest.ID {
			return shared.ErrSameAccountTransfer
		}

		// Lock both rows in a stable order so two opposing transfers
		// cannot deadlock.
		source, dest, err = s.lockPair(ctx, tx, source.ID, dest.ID)
		if err != nil {
			return err
		}
		if source.Balance.LessThan(amount) {
			return shared.ErrInsufficientBalance
		}

		sourceBalance := source.Balance.Sub(amount)
		destBalance := dest.Balance.Add(amount)
		if err := tx.SetBalance(ctx, source.ID, sourceBalance); err != nil {
			return err
		}
		if err := tx.SetBalance(ctx, dest.ID, destBalance); err != nil {
			return err
		}

		now := s.now().UTC()
		debit = Transaction{
			ID:                  uuid.New(),
			AccountID:           source.ID,
			Type:                TypeTransfer,
			Amount:              amount,
			Timestamp:           now,
			Description:         description,
			TargetAccountNumber: &dest.Number,
			Status:              StatusSuccess,
			BalanceAfter:        sourceBalance,
		}
		credit := Transaction{
			ID:                  uuid.New(),
			AccountID:           dest.ID,
			Type:                TypeTransfer,
			Amount:              amount,
			Timestamp:           now,
			Description:         fmt.Sprintf("Transfer from %s", source.Number),
			TargetAccountNumber: &source.Number,
			Status:              StatusSuccess,
			BalanceAfter:        destBalance,
		}
		if err := tx.Insert(ctx, debit); err != nil {
			return err
		}
		return tx.Insert(ctx, credit)
	})
	if err != nil {
		s.metrics.ObserveLedgerOp("transfer", outcome(err))
		return Transaction{}, err
	}

	s.invalidateAccount(ctx, source)
	s.invalidateAccount(ctx, dest)
	s.metrics.ObserveLedgerOp("transfer", "success")
	s.logger.Info("transfer applied",
		slog.String("source_id", source.ID.String()),
		slog.String("destination", dest.Number),
		slog.String("amount", amount.StringFixed(2)))
	return debit, nil
}

// HistoryPage is one page of an account's transaction history.
type HistoryPage struct {
	Items      []Transaction     `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GetHistory returns a page of the account's records, newest first,
// optionally bounded to an inclusive date range. Pages beyond the data
// return empty items with the correct total.
func (s *Service) GetHistory(ctx context.Context, ref accounts.Ref, page, pageSize int, from, to *time.Time) (HistoryPage, error) {
	if from != nil && to != nil && from.After(*to) {
		return HistoryPage{}, shared.ErrInvalidDateRange
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var account accounts.Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		account, err = tx.Account(ctx, ref)
		return err
	})
	if err != nil {
		return HistoryPage{}, err
	}

	key := shared.HistoryKey(account.ID, page, pageSize, from, to)
	load := func(ctx context.Context) (any, error) {
		items, total, err := s.repo.ListPage(ctx, account.ID, pageSize, (page-1)*pageSize, from, to)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []Transaction{}
		}
		return HistoryPage{Items: items, Pagination: shared.NewPagination(page, pageSize, total)}, nil
	}

	var result HistoryPage
	if err := s.cache.FetchJSON(ctx, key, &result, s.cfg.HistoryTTL, load); err != nil {
		if errors.Is(err, shared.ErrAccountNotFound) {
			return HistoryPage{}, err
		}
		s.metrics.ObserveCache("history", "error")
		s.logger.Warn("history cache read failed", slog.Any("error", err))
		raw, loadErr := load(ctx)
		if loadErr != nil {
			return HistoryPage{}, loadErr
		}
		return raw.(HistoryPage), nil
	}
	return result, nil
}

// ListRange returns the full filtered record set for an account, oldest
// first. Statement exports build on this.
func (s *Service) ListRange(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]Transaction, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, shared.ErrInvalidDateRange
	}
	return s.repo.ListRange(ctx, accountID, from, to)
}

// ResolveAccount resolves a reference against the store without caching.
func (s *Service) ResolveAccount(ctx context.Context, ref accounts.Ref) (accounts.Account, error) {
	var account accounts.Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		account, err = tx.Account(ctx, ref)
		return err
	})
	return account, err
}

// lockPair takes FOR UPDATE locks on both accounts in ascending-id order
// and returns them as (source, dest).
func (s *Service) lockPair(ctx context.Context, tx TxRepository, sourceID, destID uuid.UUID) (accounts.Account, accounts.Account, error) {
	first, second := sourceID, destID
	if destID.String() < sourceID.String() {
		first, second = destID, sourceID
	}
	a, err := tx.AccountForUpdate(ctx, first)
	if err != nil {
		return accounts.Account{}, accounts.Account{}, err
	}
	b, err := tx.AccountForUpdate(ctx, second)
	if err != nil {
		return accounts.Account{}, accounts.Account{}, err
	}
	if a.ID == sourceID {
		return a, b, nil
	}
	return b, a, nil
}

// invalidateAccount eagerly drops every cache entry keyed by the account:
// snapshots, history pages, and export artifacts. Failures degrade the
// cache, never the operation.
func (s *Service) invalidateAccount(ctx context.Context, account accounts.Account) {
	err := s.cache.DeleteByPrefix(ctx,
		shared.AccountKey(account.ID),
		shared.AccountNumberKey(account.Number),
		shared.HistoryPrefix(account.ID),
		shared.ExportPrefix(account.ID),
	)
	if err != nil {
		s.metrics.ObserveCache("invalidate", "error")
		s.logger.Warn("cache invalidation failed",
			slog.String("account_id", account.ID.String()),
			slog.Any("error", err))
	}
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount
	}
	return nil
}

func normalizeDescription(description, fallback string) (string, error) {
	if description == "" {
		return fallback, nil
	}
	if len(description) > MaxDescriptionLength {
		return "", fmt.Errorf("ledger: description exceeds %d characters", MaxDescriptionLength)
	}
	return description, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, shared.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, shared.ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrSameAccountTransfer):
		return "same_account"
	default:
		return "error"
	}
}

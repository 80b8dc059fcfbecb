package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emberbank/emberbank/internal/shared"
)

// ErrNumberTaken signals an account-number collision on insert; the service
// retries with a fresh number.
var ErrNumberTaken = errors.New("account number already exists")

const accountColumns = `id, owner_id, number, type, currency, balance, created_at`

// Repository encapsulates DB operations for accounts.
type Repository interface {
	Create(ctx context.Context, account Account) error
	GetByRef(ctx context.Context, ref Ref) (Account, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Account, error)
	OwnerHasType(ctx context.Context, ownerID uuid.UUID, accountType AccountType) (bool, error)
	NumberExists(ctx context.Context, number string) (bool, error)
	UpdateMeta(ctx context.Context, id uuid.UUID, accountType AccountType, currency string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed account repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, account Account) error {
	_, err := r.db.Exec(ctx, `INSERT INTO accounts (id, owner_id, number, type, currency, balance, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		account.ID, account.OwnerID, account.Number, account.Type, account.Currency, account.Balance, account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "uq_accounts_number" {
				return ErrNumberTaken
			}
			if pgErr.ConstraintName == "uq_accounts_owner_type" {
				return shared.ErrDuplicateAccountType
			}
		}
		return fmt.Errorf("accounts: insert: %w", err)
	}
	return nil
}

func (r *repository) GetByRef(ctx context.Context, ref Ref) (Account, error) {
	if ref.IsZero() {
		return Account{}, shared.ErrAccountNotFound
	}
	var row pgx.Row
	if id, ok := ref.ID(); ok {
		row = r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
	} else {
		number, _ := ref.Number()
		row = r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE number=$1`, number)
	}
	return scanAccount(row)
}

func (r *repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner_id=$1 ORDER BY created_at ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("accounts: list: %w", err)
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Number, &a.Type, &a.Currency, &a.Balance, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) OwnerHasType(ctx context.Context, ownerID uuid.UUID, accountType AccountType) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE owner_id=$1 AND type=$2)`, ownerID, accountType).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("accounts: owner has type: %w", err)
	}
	return exists, nil
}

func (r *repository) NumberExists(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE number=$1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("accounts: number exists: %w", err)
	}
	return exists, nil
}

func (r *repository) UpdateMeta(ctx context.Context, id uuid.UUID, accountType AccountType, currency string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET type=$2, currency=$3 WHERE id=$1`, id, accountType, currency)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicateAccountType
		}
		return fmt.Errorf("accounts: update meta: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return shared.ErrAccountInUse
		}
		return fmt.Errorf("accounts: delete: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.OwnerID, &a.Number, &a.Type, &a.Currency, &a.Balance, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("accounts: scan: %w", err)
	}
	return a, nil
}

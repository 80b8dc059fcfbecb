package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/emberbank/emberbank/internal/accounts"
	"github.com/emberbank/emberbank/internal/platform/db"
	"github.com/emberbank/emberbank/internal/shared"
)

const txColumns = `id, account_id, type, amount, timestamp, description, target_account_number, status, balance_after`

// Repository encapsulates DB operations for the ledger. Mutations run
// through WithTx so a balance write and its record append commit as one
// unit or not at all.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListPage(ctx context.Context, accountID uuid.UUID, limit, offset int, from, to *time.Time) ([]Transaction, int, error)
	ListRange(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]Transaction, error)
}

// TxRepository exposes the operations available inside one atomic commit.
type TxRepository interface {
	// Account resolves a reference without locking.
	Account(ctx context.Context, ref accounts.Ref) (accounts.Account, error)
	// AccountForUpdate locks the account row and returns its current state.
	// Two concurrent operations on one account serialize here.
	AccountForUpdate(ctx context.Context, id uuid.UUID) (accounts.Account, error)
	SetBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal) error
	Insert(ctx context.Context, record Transaction) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds the Postgres-backed ledger repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *repository) ListPage(ctx context.Context, accountID uuid.UUID, limit, offset int, from, to *time.Time) ([]Transaction, int, error) {
	where, args := historyFilter(accountID, from, to)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ledger: count: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY timestamp DESC, id DESC LIMIT $%d OFFSET $%d`,
		txColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("ledger: list page: %w", err)
	}
	defer rows.Close()
	items, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) ListRange(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]Transaction, error) {
	where, args := historyFilter(accountID, from, to)
	rows, err := r.db.Query(ctx, `SELECT `+txColumns+` FROM transactions `+where+` ORDER BY timestamp ASC, id ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list range: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Account(ctx context.Context, ref accounts.Ref) (accounts.Account, error) {
	if ref.IsZero() {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	var row pgx.Row
	if id, ok := ref.ID(); ok {
		row = r.tx.QueryRow(ctx, `SELECT id, owner_id, number, type, currency, balance, created_at FROM accounts WHERE id=$1`, id)
	} else {
		number, _ := ref.Number()
		row = r.tx.QueryRow(ctx, `SELECT id, owner_id, number, type, currency, balance, created_at FROM accounts WHERE number=$1`, number)
	}
	return scanAccount(row)
}

func (r *txRepository) AccountForUpdate(ctx context.Context, id uuid.UUID) (accounts.Account, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, owner_id, number, type, currency, balance, created_at FROM accounts WHERE id=$1 FOR UPDATE`, id)
	return scanAccount(row)
}

func (r *txRepository) SetBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounts SET balance=$2 WHERE id=$1`, accountID, balance)
	if err != nil {
		return fmt.Errorf("ledger: set balance: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *txRepository) Insert(ctx context.Context, record Transaction) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO transactions (id, account_id, type, amount, timestamp, description, target_account_number, status, balance_after)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		record.ID, record.AccountID, record.Type, record.Amount, record.Timestamp,
		record.Description, record.TargetAccountNumber, record.Status, record.BalanceAfter)
	if err != nil {
		return fmt.Errorf("ledger: insert transaction: %w", err)
	}
	return nil
}

func historyFilter(accountID uuid.UUID, from, to *time.Time) (string, []any) {
	var sb bytes.Buffer
	sb.WriteString(`WHERE account_id=$1`)
	args := []any{accountID}
	if from != nil {
		args = append(args, *from)
		fmt.Fprintf(&sb, ` AND timestamp >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, *to)
		fmt.Fprintf(&sb, ` AND timestamp <= $%d`, len(args))
	}
	return sb.String(), args
}

func scanTransactions(rows pgx.Rows) ([]Transaction, error) {
	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.Timestamp,
			&t.Description, &t.TargetAccountNumber, &t.Status, &t.BalanceAfter); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanAccount(row pgx.Row) (accounts.Account, error) {
	var a accounts.Account
	err := row.Scan(&a.ID, &a.OwnerID, &a.Number, &a.Type, &a.Currency, &a.Balance, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
		return accounts.Account{}, fmt.Errorf("ledger: scan account: %w", err)
	}
	return a, nil
}

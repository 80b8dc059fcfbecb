package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoveMoneyRequest is the deposit/withdraw payload.
type MoveMoneyRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description" validate:"omitempty,max=250"`
}

// TransferRequest is the transfer payload. The destination is addressed by
// account number, the way a payer addresses a counterparty.
type TransferRequest struct {
	ToAccountNumber string          `json:"toAccountNumber" validate:"required,len=10,numeric"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	Description     string          `json:"description" validate:"omitempty,max=250"`
}

// TransactionResponse is the serialized transaction projection.
type TransactionResponse struct {
	ID                  string            `json:"id"`
	AccountID           string            `json:"accountId"`
	Type                TransactionType   `json:"type"`
	Amount              decimal.Decimal   `json:"amount"`
	Timestamp           time.Time         `json:"timestamp"`
	Description         string            `json:"description"`
	TargetAccountNumber *string           `json:"targetAccountNumber,omitempty"`
	Status              TransactionStatus `json:"status"`
	BalanceAfter        decimal.Decimal   `json:"balanceAfterTransaction"`
}

// HistoryResponse is one serialized history page.
type HistoryResponse struct {
	Items      []TransactionResponse `json:"items"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"pageSize"`
	TotalItems int                   `json:"totalItems"`
	TotalPages int                   `json:"totalPages"`
}

func toResponse(t Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                  t.ID.String(),
		AccountID:           t.AccountID.String(),
		Type:                t.Type,
		Amount:              t.Amount,
		Timestamp:           t.Timestamp,
		Description:         t.Description,
		TargetAccountNumber: t.TargetAccountNumber,
		Status:              t.Status,
		BalanceAfter:        t.BalanceAfter,
	}
}

func toHistoryResponse(page HistoryPage) HistoryResponse {
	items := make([]TransactionResponse, 0, len(page.Items))
	for _, t := range page.Items {
		items = append(items, toResponse(t))
	}
	return HistoryResponse{
		Items:      items,
		Page:       page.Pagination.Page,
		PageSize:   page.Pagination.PerPage,
		TotalItems: page.Pagination.Total,
		TotalPages: page.Pagination.TotalPages,
	}
}

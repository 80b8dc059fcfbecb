// Package export renders account statements into downloadable artifacts.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/emberbank/emberbank/internal/accounts"
	"github.com/emberbank/emberbank/internal/ledger"
	"github.com/emberbank/emberbank/internal/platform/cache"
	"github.com/emberbank/emberbank/internal/shared"
)

// Format selects the statement rendering.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

// ErrUnknownFormat rejects formats outside the supported set.
var ErrUnknownFormat = errors.New("export: unknown format")

// Result is a rendered statement ready to serve.
type Result struct {
	Bytes       []byte
	ContentType string
	FileName    string
}

// Statement carries everything a renderer needs.
type Statement struct {
	Account      accounts.Account
	From, To     *time.Time
	Transactions []ledger.Transaction
}

// LedgerReader is the slice of the ledger service exports rely on.
type LedgerReader interface {
	ResolveAccount(ctx context.Context, ref accounts.Ref) (accounts.Account, error)
	ListRange(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]ledger.Transaction, error)
}

// Service resolves the account, fetches the filtered transaction set and
// renders it. Rendered bytes are cached per (account, range, format).
type Service struct {
	ledger  LedgerReader
	cache   *cache.Store
	logger  *slog.Logger
	ttl     time.Duration
	printer *message.Printer
}

// NewService builds the export service. ttl bounds cached artifacts.
func NewService(ledgerSvc LedgerReader, store *cache.Store, logger *slog.Logger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		ledger:  ledgerSvc,
		cache:   store,
		logger:  logger,
		ttl:     ttl,
		printer: message.NewPrinter(language.English),
	}
}

// Export renders the account's statement for the requested range. An empty
// filtered set yields shared.ErrNoData so callers can tell an empty
// statement apart from a rendering failure.
func (s *Service) Export(ctx context.Context, ref accounts.Ref, from, to *time.Time, format Format) (Result, error) {
	if format != FormatCSV && format != FormatExcel && format != FormatPDF {
		return Result{}, ErrUnknownFormat
	}
	if from != nil && to != nil && from.After(*to) {
		return Result{}, shared.ErrInvalidDateRange
	}

	account, err := s.ledger.ResolveAccount(ctx, ref)
	if err != nil {
		return Result{}, err
	}

	contentType, fileName := artifactMeta(account, from, to, format)

	key := shared.ExportKey(account.ID, from, to, string(format))
	if payload, err := s.cache.Bytes(ctx, key); err == nil {
		return Result{Bytes: payload, ContentType: contentType, FileName: fileName}, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("export cache read failed", slog.Any("error", err))
	}

	transactions, err := s.ledger.ListRange(ctx, account.ID, from, to)
	if err != nil {
		return Result{}, err
	}
	if len(transactions) == 0 {
		return Result{}, shared.ErrNoData
	}

	statement := Statement{Account: account, From: from, To: to, Transactions: transactions}
	var payload []byte
	switch format {
	case FormatCSV:
		payload, err = s.renderCSV(statement)
	case FormatExcel:
		payload, err = s.renderExcel(statement)
	case FormatPDF:
		payload, err = s.renderPDF(statement)
	}
	if err != nil {
		return Result{}, fmt.Errorf("export: render %s: %w", format, err)
	}

	if err := s.cache.SetBytes(ctx, key, payload, s.ttl); err != nil {
		s.logger.Warn("export cache write failed", slog.Any("error", err))
	}
	return Result{Bytes: payload, ContentType: contentType, FileName: fileName}, nil
}

func artifactMeta(account accounts.Account, from, to *time.Time, format Format) (contentType, fileName string) {
	base := fmt.Sprintf("statement_%s_%s_%s", account.Number, dateLabel(from), dateLabel(to))
	switch format {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", base + ".xlsx"
	case FormatPDF:
		return "application/pdf", base + ".pdf"
	default:
		return "text/csv", base + ".csv"
	}
}

func dateLabel(t *time.Time) string {
	if t == nil {
		return "all"
	}
	return t.UTC().Format("20060102")
}


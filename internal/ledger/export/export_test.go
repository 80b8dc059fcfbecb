package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/emberbank/emberbank/internal/accounts"
	"github.com/emberbank/emberbank/internal/ledger"
	"github.com/emberbank/emberbank/internal/platform/cache"
	"github.com/emberbank/emberbank/internal/shared"
)

type fakeLedger struct {
	account   accounts.Account
	records   []ledger.Transaction
	listCalls int
}

func (f *fakeLedger) ResolveAccount(ctx context.Context, ref accounts.Ref) (accounts.Account, error) {
	if number, ok := ref.Number(); ok && number != f.account.Number {
		return accounts.Account{}, shared.ErrAccountNotFound
	}
	return f.account, nil
}

func (f *fakeLedger) ListRange(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]ledger.Transaction, error) {
	f.listCalls++
	var out []ledger.Transaction
	for _, t := range f.records {
		if from != nil && t.Timestamp.Before(*from) {
			continue
		}
		if to != nil && t.Timestamp.After(*to) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func newFakeLedger() *fakeLedger {
	account := accounts.Account{
		ID:       uuid.New(),
		OwnerID:  uuid.New(),
		Number:   "1000000001",
		Type:     accounts.AccountTypeSavings,
		Currency: accounts.DefaultCurrency,
		Balance:  decimal.NewFromInt(1200),
	}
	counterparty := "2000000002"
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &fakeLedger{
		account: account,
		records: []ledger.Transaction{
			{
				ID:           uuid.New(),
				AccountID:    account.ID,
				Type:         ledger.TypeDeposit,
				Amount:       decimal.NewFromInt(1500),
				Timestamp:    base,
				Description:  "Deposit",
				Status:       ledger.StatusSuccess,
				BalanceAfter: decimal.NewFromInt(1500),
			},
			{
				ID:                  uuid.New(),
				AccountID:           account.ID,
				Type:                ledger.TypeTransfer,
				Amount:              decimal.NewFromInt(300),
				Timestamp:           base.Add(time.Hour),
				Description:         "Rent",
				TargetAccountNumber: &counterparty,
				Status:              ledger.StatusSuccess,
				BalanceAfter:        decimal.NewFromInt(1200),
			},
		},
	}
}

func newExportService(t *testing.T, reader LedgerReader) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(reader, cache.NewStore(client), slog.Default(), time.Minute)
}

func TestExportCSV(t *testing.T) {
	reader := newFakeLedger()
	svc := newExportService(t, reader)

	result, err := svc.Export(context.Background(), accounts.ByID(reader.account.ID), nil, nil, FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "text/csv", result.ContentType)
	require.Equal(t, "statement_1000000001_all_all.csv", result.FileName)

	records, err := csv.NewReader(bytes.NewReader(result.Bytes)).ReadAll()
	require.NoError(t, err)
	require.Equal(t, statementHeader, records[0])
	require.Len(t, records, 3)
	require.Equal(t, "Deposit", records[1][1])
	require.Equal(t, "NGN 1,500.00", records[1][4])
	require.Equal(t, "2000000002", records[2][3])
	require.Equal(t, "NGN 1,200.00", records[2][5])
}

func TestExportExcel(t *testing.T) {
	reader := newFakeLedger()
	svc := newExportService(t, reader)

	result, err := svc.Export(context.Background(), accounts.ByID(reader.account.ID), nil, nil, FormatExcel)
	require.NoError(t, err)
	require.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.ContentType)
	require.True(t, strings.HasSuffix(result.FileName, ".xlsx"))

	book, err := excelize.OpenReader(bytes.NewReader(result.Bytes))
	require.NoError(t, err)
	t.Cleanup(func() { _ = book.Close() })
	rows, err := book.GetRows("Statement")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
}

func TestExportPDF(t *testing.T) {
	reader := newFakeLedger()
	svc := newExportService(t, reader)

	result, err := svc.Export(context.Background(), accounts.ByID(reader.account.ID), nil, nil, FormatPDF)
	require.NoError(t, err)
	require.Equal(t, "application/pdf", result.ContentType)
	require.True(t, strings.HasSuffix(result.FileName, ".pdf"))
	require.True(t, bytes.HasPrefix(result.Bytes, []byte("%PDF")))
}

func TestExportFileNameCarriesRange(t *testing.T) {
	reader := newFakeLedger()
	svc := newExportService(t, reader)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	result, err := svc.Export(context.Background(), accounts.ByID(reader.account.ID), &from, &to, FormatCSV)
	require.NoError(t, err)
	require.Equal(t, "statement_1000000001_20250301_20250331.csv", result.FileName)
}

func TestExportEmptyRange(t *testing.T) {
	reader := newFakeLedger()
	svc := newExportService(t, reader)

	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	_, err := svc.Export(context.Background(), accounts.ByID(reader.account.ID), &from, &to, FormatCSV)
	require.ErrorIs(t, err, shared.ErrNoData)
}

func TestExportRejectsInvertedRange(t *testing.T) {
	reader := newFakeLedger()
	svc := newExportService(t, reader)

	from := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, -1, 0)
	_, err := svc.Export(context.Background(), accounts.ByID(reader.account.ID), &from, &to, FormatCSV)
	require.ErrorIs(t, err, shared.ErrInvalidDateRange)
	require.Zero(t, reader.listCalls)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	reader := newFakeLedger()
	svc := newExportService(t, reader)

	_, err := svc.Export(context.Background(), accounts.ByID(reader.account.ID), nil, nil, Format("xml"))
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestExportUnknownAccount(t *testing.T) {
	reader := newFakeLedger()
	svc := newExportService(t, reader)

	_, err := svc.Export(context.Background(), accounts.ByNumber("9999999999"), nil, nil, FormatCSV)
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestExportServesCachedArtifact(t *testing.T) {
	reader := newFakeLedger()
	svc := newExportService(t, reader)
	ctx := context.Background()

	first, err := svc.Export(ctx, accounts.ByID(reader.account.ID), nil, nil, FormatCSV)
	require.NoError(t, err)
	require.Equal(t, 1, reader.listCalls)

	second, err := svc.Export(ctx, accounts.ByID(reader.account.ID), nil, nil, FormatCSV)
	require.NoError(t, err)
	require.Equal(t, 1, reader.listCalls)
	require.Equal(t, first.Bytes, second.Bytes)
	require.Equal(t, first.FileName, second.FileName)
}

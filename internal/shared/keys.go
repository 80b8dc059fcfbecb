package shared

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cache key builders. Every key for a given account lives under one of the
// prefixes below so a mutation can invalidate all of them in one sweep.

// AccountKey is the cached snapshot of an account by id.
func AccountKey(id uuid.UUID) string {
	return fmt.Sprintf("account:%s", id)
}

// AccountNumberKey is the cached snapshot of an account by number.
func AccountNumberKey(number string) string {
	return fmt.Sprintf("account:number:%s", number)
}

// HistoryKey identifies one cached transaction-history page.
func HistoryKey(accountID uuid.UUID, page, pageSize int, from, to *time.Time) string {
	return fmt.Sprintf("transactions:%s:%d:%d:%s:%s", accountID, page, pageSize, stamp(from), stamp(to))
}

// HistoryPrefix covers every cached history page of an account.
func HistoryPrefix(accountID uuid.UUID) string {
	return fmt.Sprintf("transactions:%s:", accountID)
}

// ExportKey identifies one cached statement artifact.
func ExportKey(accountID uuid.UUID, from, to *time.Time, format string) string {
	return fmt.Sprintf("export:%s:%s:%s:%s", accountID, stamp(from), stamp(to), format)
}

// ExportPrefix covers every cached statement artifact of an account.
func ExportPrefix(accountID uuid.UUID) string {
	return fmt.Sprintf("export:%s:", accountID)
}

func stamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("20060102T150405")
}

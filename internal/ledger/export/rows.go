package export

import (
	"github.com/shopspring/decimal"
)

var statementHeader = []string{"Timestamp", "Type", "Description", "Counterparty", "Amount", "Balance After", "Status"}

// rows flattens a statement into display records shared by every renderer.
// Amounts keep their stored positive magnitude; direction reads from the
// Type and Counterparty columns, the same way the records are modeled.
func (s *Service) rows(statement Statement) [][]string {
	currency := statement.Account.Currency
	out := make([][]string, 0, len(statement.Transactions))
	for _, t := range statement.Transactions {
		counterparty := ""
		if t.TargetAccountNumber != nil {
			counterparty = *t.TargetAccountNumber
		}
		out = append(out, []string{
			t.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			string(t.Type),
			t.Description,
			counterparty,
			s.money(currency, t.Amount),
			s.money(currency, t.BalanceAfter),
			string(t.Status),
		})
	}
	return out
}

// money renders an amount with a currency code and grouping separators,
// e.g. "NGN 12,345.67".
func (s *Service) money(currency string, d decimal.Decimal) string {
	f, _ := d.Float64()
	return s.printer.Sprintf("%s %.2f", currency, f)
}

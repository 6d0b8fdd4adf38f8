// internal/domain/models.go
package domain

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
)

// Sentinel errors surfaced by the engine and mapped to HTTP statuses by the API layer.
var (
	// ErrDatasetNotReady means no data refresh has ever completed. Distinct from
	// an empty dataset, which is a valid published snapshot with zero items.
	ErrDatasetNotReady = errors.New("dataset not ready: no data refresh has completed")

	// ErrInvalidDateRange means one of the query date strings parsed under none
	// of the accepted formats.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrUnknownIdentity means a token did not resolve to a user in the credential log.
	ErrUnknownIdentity = errors.New("unknown identity")
)

// SpoilageExpenseCategory is the expense-category literal the upstream 1C export
// uses to tag write-off rows. Contract value, not a display string.
const SpoilageExpenseCategory = "Порча на складах (94)"

// UngroupedLabel is the group assigned to items whose stock rows carry no parent
// category. Kept byte-for-byte compatible with the upstream consumers.
const UngroupedLabel = "Без группы 🤔"

// Number is a tolerant numeric field: the dumps deliver balances and totals as
// JSON numbers, numeric strings, or null depending on the export batch. Anything
// unparsable decodes to 0 rather than failing the record.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		*n = 0
		return nil
	}
	// 1C exports sometimes use a comma decimal separator.
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

// StockRecord is one row of the stock-ledger dump: a periodic balance snapshot
// for one item, optionally tagged with an expense category.
type StockRecord struct {
	ItemCode        string `json:"НоменклатураКод"`
	ItemName        string `json:"Номенклатура"`
	ParentGroup     string `json:"Родитель"`
	Period          string `json:"Период"`
	OpeningBalance  Number `json:"НачальныйОстаток"`
	ClosingBalance  Number `json:"КонечныйОстаток"`
	ExpenseCategory string `json:"СтатьяРасходов"`
}

// SalesRecord is one row of the sales dump: a transaction aggregate for one item.
type SalesRecord struct {
	ItemCode string `json:"Код"`
	ItemName string `json:"Номенклатура"`
	Amount   Number `json:"Сумма"`
	Quantity Number `json:"Количество"`
}

// ItemRow is one output row of the item-analytics query, in rank order.
// Field names match the wire contract the dashboard consumes.
type ItemRow struct {
	Name         string  `json:"Name"`
	Code         string  `json:"Code"`
	Group        string  `json:"Group"`
	Sales        float64 `json:"Sales"`
	Loss         float64 `json:"Loss"`
	LossOfProfit float64 `json:"LossOfProfit"`
	OSA          float64 `json:"OSA"`
	ABC          string  `json:"ABC"`
}

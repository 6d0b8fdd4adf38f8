// internal/source/postgres.go
package source

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/yellow444/shelfmetrics/internal/domain"
)

// PostgresSource reads the dumps from a database the export pipeline already
// lands them in. Rows are stored raw: the period stays a string and numeric
// columns may be null, so the same normalizer defaulting rules apply.
type PostgresSource struct {
	db *sqlx.DB
}

func NewPostgresSource(dsn string) (*PostgresSource, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres source: connect failed: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresSource{db: db}, nil
}

func (s *PostgresSource) Close() error { return s.db.Close() }

type stockRow struct {
	ItemCode        string   `db:"item_code"`
	ItemName        *string  `db:"item_name"`
	ParentGroup     *string  `db:"parent_group"`
	Period          *string  `db:"period"`
	OpeningBalance  *float64 `db:"opening_balance"`
	ClosingBalance  *float64 `db:"closing_balance"`
	ExpenseCategory *string  `db:"expense_category"`
}

type salesRow struct {
	ItemCode string   `db:"item_code"`
	ItemName *string  `db:"item_name"`
	Amount   *float64 `db:"amount"`
	Quantity *float64 `db:"quantity"`
}

func (s *PostgresSource) FetchStock(ctx context.Context) ([]domain.StockRecord, error) {
	const query = `
		SELECT item_code, item_name, parent_group, period,
		       opening_balance, closing_balance, expense_category
		FROM stock_ledger`

	var rows []stockRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query); err != nil {
		return nil, fmt.Errorf("postgres source: select stock_ledger failed: %w", err)
	}

	records := make([]domain.StockRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, domain.StockRecord{
			ItemCode:        r.ItemCode,
			ItemName:        deref(r.ItemName),
			ParentGroup:     deref(r.ParentGroup),
			Period:          deref(r.Period),
			OpeningBalance:  domain.Number(derefFloat(r.OpeningBalance)),
			ClosingBalance:  domain.Number(derefFloat(r.ClosingBalance)),
			ExpenseCategory: deref(r.ExpenseCategory),
		})
	}
	return records, nil
}

func (s *PostgresSource) FetchSales(ctx context.Context) ([]domain.SalesRecord, error) {
	const query = `
		SELECT item_code, item_name, amount, quantity
		FROM sales_totals`

	var rows []salesRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, query); err != nil {
		return nil, fmt.Errorf("postgres source: select sales_totals failed: %w", err)
	}

	records := make([]domain.SalesRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, domain.SalesRecord{
			ItemCode: r.ItemCode,
			ItemName: deref(r.ItemName),
			Amount:   domain.Number(derefFloat(r.Amount)),
			Quantity: domain.Number(derefFloat(r.Quantity)),
		})
	}
	return records, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

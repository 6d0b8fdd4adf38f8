package source_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yellow444/shelfmetrics/internal/source"
)

func writeDump(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileSourceDecodesStockDump(t *testing.T) {
	dump := `[
		{
			"НоменклатураКод": "A1",
			"Номенклатура": "Молоко 1л",
			"Родитель": "Молочные продукты",
			"Период": "15.01.2024 08:30:00",
			"НачальныйОстаток": 12,
			"КонечныйОстаток": "10,5",
			"СтатьяРасходов": "Порча на складах (94)"
		}
	]`
	src := source.NewFileSource(writeDump(t, "stock.json", dump), "unused")

	records, err := src.FetchStock(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "A1", r.ItemCode)
	assert.Equal(t, "Молоко 1л", r.ItemName)
	assert.Equal(t, "Молочные продукты", r.ParentGroup)
	assert.Equal(t, "15.01.2024 08:30:00", r.Period)
	assert.Equal(t, 12.0, float64(r.OpeningBalance))
	assert.Equal(t, 10.5, float64(r.ClosingBalance))
	assert.Equal(t, "Порча на складах (94)", r.ExpenseCategory)
}

func TestFileSourceDecodesSalesDump(t *testing.T) {
	dump := `[
		{"Код": "A1", "Номенклатура": "Молоко 1л", "Сумма": "1500.50", "Количество": 30},
		{"Код": "B2", "Номенклатура": "Хлеб", "Сумма": null, "Количество": "oops"}
	]`
	src := source.NewFileSource("unused", writeDump(t, "sales.json", dump))

	records, err := src.FetchSales(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1500.5, float64(records[0].Amount))
	assert.Equal(t, 30.0, float64(records[0].Quantity))
	assert.Equal(t, 0.0, float64(records[1].Amount))
	assert.Equal(t, 0.0, float64(records[1].Quantity))
}

func TestFileSourceMissingFile(t *testing.T) {
	src := source.NewFileSource(
		filepath.Join(t.TempDir(), "no-stock.json"),
		filepath.Join(t.TempDir(), "no-sales.json"),
	)

	stock, err := src.FetchStock(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stock)

	sales, err := src.FetchSales(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestFileSourceNotAnArray(t *testing.T) {
	src := source.NewFileSource(
		writeDump(t, "stock.json", `{"Сообщение": "нет данных"}`),
		writeDump(t, "sales.json", `"plain string"`),
	)

	stock, err := src.FetchStock(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stock)

	sales, err := src.FetchSales(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sales)
}

// internal/source/source.go
package source

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/yellow444/shelfmetrics/internal/domain"
)

// Source supplies the two raw dumps for a data refresh. Implementations treat
// missing or malformed input as zero records, never as fatal: a refresh built
// from an empty feed is a valid (empty) snapshot.
type Source interface {
	FetchStock(ctx context.Context) ([]domain.StockRecord, error)
	FetchSales(ctx context.Context) ([]domain.SalesRecord, error)
}

// decodeStock decodes a raw stock dump. Anything that is not a JSON array of
// records decodes to zero records.
func decodeStock(data []byte, origin string) []domain.StockRecord {
	var records []domain.StockRecord
	if err := json.Unmarshal(bytes.TrimSpace(data), &records); err != nil {
		log.Warn().Err(err).Str("origin", origin).Msg("stock dump is not a record array, treating as empty")
		return nil
	}
	return records
}

// decodeSales decodes a raw sales dump with the same tolerance as decodeStock.
func decodeSales(data []byte, origin string) []domain.SalesRecord {
	var records []domain.SalesRecord
	if err := json.Unmarshal(bytes.TrimSpace(data), &records); err != nil {
		log.Warn().Err(err).Str("origin", origin).Msg("sales dump is not a record array, treating as empty")
		return nil
	}
	return records
}

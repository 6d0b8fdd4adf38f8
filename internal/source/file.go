// internal/source/file.go
package source

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/yellow444/shelfmetrics/internal/domain"
)

// FileSource reads the stock and sales dumps from the local filesystem, the
// default deployment where the export lands next to the service.
type FileSource struct {
	StockPath string
	SalesPath string
}

func NewFileSource(stockPath, salesPath string) *FileSource {
	return &FileSource{StockPath: stockPath, SalesPath: salesPath}
}

func (s *FileSource) FetchStock(ctx context.Context) ([]domain.StockRecord, error) {
	data, ok := readDump(s.StockPath)
	if !ok {
		return nil, nil
	}
	return decodeStock(data, s.StockPath), nil
}

func (s *FileSource) FetchSales(ctx context.Context) ([]domain.SalesRecord, error) {
	data, ok := readDump(s.SalesPath)
	if !ok {
		return nil, nil
	}
	return decodeSales(data, s.SalesPath), nil
}

func readDump(path string) ([]byte, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("path", path).Msg("dump file missing, treating as empty")
		} else {
			log.Warn().Err(err).Str("path", path).Msg("dump file unreadable, treating as empty")
		}
		return nil, false
	}
	return data, true
}

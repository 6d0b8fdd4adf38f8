// internal/source/drive.go
package source

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/yellow444/shelfmetrics/internal/domain"
)

// DriveConfig identifies the Google Drive folder the export pipeline drops the
// dump files into, plus the service-account credentials to read it.
type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
	StockName       string
	SalesName       string
}

// DriveSource fetches dumps from a Google Drive folder using a service-account
// JWT. Files are matched by name within the folder; the newest match wins when
// the exporter left duplicates behind.
type DriveSource struct {
	srv *drive.Service
	cfg DriveConfig
}

func NewDriveSource(ctx context.Context, cfg DriveConfig) (*DriveSource, error) {
	if cfg.FolderID == "" {
		return nil, fmt.Errorf("drive source: folder id must be provided")
	}

	jwtConfig, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("drive source: unable to parse credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("drive source: unable to build client: %w", err)
	}

	if cfg.StockName == "" {
		cfg.StockName = "stock_dump.json"
	}
	if cfg.SalesName == "" {
		cfg.SalesName = "sales_dump.json"
	}

	return &DriveSource{srv: srv, cfg: cfg}, nil
}

func (s *DriveSource) FetchStock(ctx context.Context) ([]domain.StockRecord, error) {
	data, err := s.downloadByName(ctx, s.cfg.StockName)
	if err != nil {
		return nil, err
	}
	return decodeStock(data, s.cfg.StockName), nil
}

func (s *DriveSource) FetchSales(ctx context.Context) ([]domain.SalesRecord, error) {
	data, err := s.downloadByName(ctx, s.cfg.SalesName)
	if err != nil {
		return nil, err
	}
	return decodeSales(data, s.cfg.SalesName), nil
}

func (s *DriveSource) downloadByName(ctx context.Context, name string) ([]byte, error) {
	query := fmt.Sprintf("'%s' in parents and name = '%s' and trashed=false",
		s.cfg.FolderID, strings.ReplaceAll(name, "'", `\'`))

	list, err := s.srv.Files.List().
		Context(ctx).
		Q(query).
		OrderBy("modifiedTime desc").
		Fields("files(id, name, modifiedTime)").
		PageSize(1).
		Do()
	if err != nil {
		return nil, fmt.Errorf("drive source: list %s failed: %w", name, err)
	}
	if len(list.Files) == 0 {
		return nil, fmt.Errorf("drive source: %s not found in folder %s", name, s.cfg.FolderID)
	}

	resp, err := s.srv.Files.Get(list.Files[0].Id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("drive source: download %s failed: %w", name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("drive source: read %s failed: %w", name, err)
	}
	return data, nil
}

// internal/source/object.go
package source

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yellow444/shelfmetrics/internal/domain"
)

// ObjectConfig carries the connection info for an S3-compatible bucket holding
// the dump objects.
type ObjectConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	StockKey  string
	SalesKey  string
}

// ObjectSource fetches dumps from S3-compatible object storage. Unlike the file
// source, a transport failure here is an error: the caller decides whether to
// keep serving the previous snapshot.
type ObjectSource struct {
	client *minio.Client
	cfg    ObjectConfig
}

func NewObjectSource(cfg ObjectConfig) (*ObjectSource, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("object source: endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("object source: credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("object source: bucket must be provided")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object source: client init failed: %w", err)
	}

	return &ObjectSource{client: client, cfg: cfg}, nil
}

func (s *ObjectSource) FetchStock(ctx context.Context) ([]domain.StockRecord, error) {
	data, err := s.download(ctx, s.cfg.StockKey)
	if err != nil {
		return nil, err
	}
	return decodeStock(data, s.cfg.StockKey), nil
}

func (s *ObjectSource) FetchSales(ctx context.Context) ([]domain.SalesRecord, error) {
	data, err := s.download(ctx, s.cfg.SalesKey)
	if err != nil {
		return nil, err
	}
	return decodeSales(data, s.cfg.SalesKey), nil
}

func (s *ObjectSource) download(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("object source: get %s/%s failed: %w", s.cfg.Bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("object source: read %s/%s failed: %w", s.cfg.Bucket, key, err)
	}
	return data, nil
}

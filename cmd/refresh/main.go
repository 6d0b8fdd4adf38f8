// cmd/refresh/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/yellow444/shelfmetrics/internal/dataset"
	"github.com/yellow444/shelfmetrics/internal/normalize"
	"github.com/yellow444/shelfmetrics/internal/source"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "refresh",
		Usage: "Pull and validate the raw analytics dumps",
		Commands: []*cli.Command{
			{
				Name:  "pull",
				Usage: "Download the stock and sales dumps from object storage into the local dump directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "endpoint", Usage: "S3-compatible endpoint", Required: true, EnvVars: []string{"OBJECT_ENDPOINT"}},
					&cli.StringFlag{Name: "access-key", Required: true, EnvVars: []string{"OBJECT_ACCESS_KEY"}},
					&cli.StringFlag{Name: "secret-key", Required: true, EnvVars: []string{"OBJECT_SECRET_KEY"}},
					&cli.StringFlag{Name: "bucket", Required: true, EnvVars: []string{"OBJECT_BUCKET"}},
					&cli.BoolFlag{Name: "use-ssl", Value: true, EnvVars: []string{"OBJECT_USE_SSL"}},
					&cli.StringFlag{Name: "stock-key", Value: "dumps/stock_dump.json", EnvVars: []string{"OBJECT_STOCK_KEY"}},
					&cli.StringFlag{Name: "sales-key", Value: "dumps/sales_dump.json", EnvVars: []string{"OBJECT_SALES_KEY"}},
					&cli.StringFlag{Name: "dest-dir", Value: "./data", Usage: "Directory the dumps are written into"},
				},
				Action: runPull,
			},
			{
				Name:  "check",
				Usage: "Normalize and build a snapshot from local dumps, printing a summary",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "stock-dump", Value: "./data/stock_dump.json", EnvVars: []string{"APP_STOCK_DUMP"}},
					&cli.StringFlag{Name: "sales-dump", Value: "./data/sales_dump.json", EnvVars: []string{"APP_SALES_DUMP"}},
				},
				Action: runCheck,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("refresh command failed")
	}
}

func runPull(c *cli.Context) error {
	client, err := minio.New(c.String("endpoint"), &minio.Options{
		Creds:  credentials.NewStaticV4(c.String("access-key"), c.String("secret-key"), ""),
		Secure: c.Bool("use-ssl"),
	})
	if err != nil {
		return fmt.Errorf("object storage client init failed: %w", err)
	}

	destDir := c.String("dest-dir")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure dest dir %s: %w", destDir, err)
	}

	downloads := map[string]string{
		c.String("stock-key"): filepath.Join(destDir, "stock_dump.json"),
		c.String("sales-key"): filepath.Join(destDir, "sales_dump.json"),
	}

	for key, dest := range downloads {
		if err := downloadObject(c.Context, client, c.String("bucket"), key, dest); err != nil {
			return err
		}
		log.Info().Str("key", key).Str("dest", dest).Msg("dump downloaded")
	}

	return nil
}

func downloadObject(ctx context.Context, client *minio.Client, bucket, key, dest string) error {
	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("get %s/%s failed: %w", bucket, key, err)
	}
	defer obj.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s failed: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, obj); err != nil {
		return fmt.Errorf("write %s failed: %w", dest, err)
	}
	return nil
}

func runCheck(c *cli.Context) error {
	src := source.NewFileSource(c.String("stock-dump"), c.String("sales-dump"))

	stock, err := src.FetchStock(c.Context)
	if err != nil {
		return err
	}
	sales, err := src.FetchSales(c.Context)
	if err != nil {
		return err
	}

	agg := normalize.Normalize(stock, sales)
	d := dataset.Build(agg)

	fmt.Printf("stock records:  %d\n", len(stock))
	fmt.Printf("sales records:  %d\n", len(sales))
	fmt.Printf("items:          %d\n", d.Len())
	fmt.Printf("events:         %d\n", d.Offsets[d.Len()])

	return nil
}

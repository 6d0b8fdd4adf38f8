// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Source  SourceConfig
	Cache   CacheConfig
	Auth    AuthConfig
	Refresh RefreshConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// SourceConfig selects where data refreshes pull the raw dumps from.
// Kind is one of "file", "object", "postgres", "drive".
type SourceConfig struct {
	Kind string

	StockDumpPath string
	SalesDumpPath string

	DatabaseURL string

	ObjectEndpoint  string
	ObjectAccessKey string
	ObjectSecretKey string
	ObjectBucket    string
	ObjectUseSSL    bool
	ObjectStockKey  string
	ObjectSalesKey  string

	DriveCredentialsJSON string
	DriveFolderID        string
	DriveStockName       string
	DriveSalesName       string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ResultTTLSeconds int
}

type AuthConfig struct {
	SecretKey       string
	TokenTTLMinutes int
	CredentialsLog  string
}

type RefreshConfig struct {
	// IntervalSeconds enables periodic re-polling of the source when positive.
	IntervalSeconds int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

		viper.SetDefault("SOURCE_KIND", "file")
		viper.SetDefault("APP_STOCK_DUMP", "./data/stock_dump.json")
		viper.SetDefault("APP_SALES_DUMP", "./data/sales_dump.json")
		viper.SetDefault("DATABASE_URL", "")
		viper.SetDefault("OBJECT_ENDPOINT", "")
		viper.SetDefault("OBJECT_ACCESS_KEY", "")
		viper.SetDefault("OBJECT_SECRET_KEY", "")
		viper.SetDefault("OBJECT_BUCKET", "")
		viper.SetDefault("OBJECT_USE_SSL", true)
		viper.SetDefault("OBJECT_STOCK_KEY", "dumps/stock_dump.json")
		viper.SetDefault("OBJECT_SALES_KEY", "dumps/sales_dump.json")
		viper.SetDefault("DRIVE_CREDENTIALS_JSON", "")
		viper.SetDefault("DRIVE_FOLDER_ID", "")
		viper.SetDefault("DRIVE_STOCK_NAME", "stock_dump.json")
		viper.SetDefault("DRIVE_SALES_NAME", "sales_dump.json")

		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_RESULT_TTL_SECONDS", 60)

		viper.SetDefault("AUTH_SECRET_KEY", "secret")
		viper.SetDefault("AUTH_TOKEN_TTL_MINUTES", 60)
		viper.SetDefault("APP_CREDENTIALS_LOG", "./data/LogPas.txt")

		viper.SetDefault("REFRESH_INTERVAL_SECONDS", 0)

		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Source: SourceConfig{
				Kind:                 viper.GetString("SOURCE_KIND"),
				StockDumpPath:        viper.GetString("APP_STOCK_DUMP"),
				SalesDumpPath:        viper.GetString("APP_SALES_DUMP"),
				DatabaseURL:          viper.GetString("DATABASE_URL"),
				ObjectEndpoint:       viper.GetString("OBJECT_ENDPOINT"),
				ObjectAccessKey:      viper.GetString("OBJECT_ACCESS_KEY"),
				ObjectSecretKey:      viper.GetString("OBJECT_SECRET_KEY"),
				ObjectBucket:         viper.GetString("OBJECT_BUCKET"),
				ObjectUseSSL:         viper.GetBool("OBJECT_USE_SSL"),
				ObjectStockKey:       viper.GetString("OBJECT_STOCK_KEY"),
				ObjectSalesKey:       viper.GetString("OBJECT_SALES_KEY"),
				DriveCredentialsJSON: viper.GetString("DRIVE_CREDENTIALS_JSON"),
				DriveFolderID:        viper.GetString("DRIVE_FOLDER_ID"),
				DriveStockName:       viper.GetString("DRIVE_STOCK_NAME"),
				DriveSalesName:       viper.GetString("DRIVE_SALES_NAME"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				ResultTTLSeconds: viper.GetInt("CACHE_RESULT_TTL_SECONDS"),
			},
			Auth: AuthConfig{
				SecretKey:       viper.GetString("AUTH_SECRET_KEY"),
				TokenTTLMinutes: viper.GetInt("AUTH_TOKEN_TTL_MINUTES"),
				CredentialsLog:  viper.GetString("APP_CREDENTIALS_LOG"),
			},
			Refresh: RefreshConfig{
				IntervalSeconds: viper.GetInt("REFRESH_INTERVAL_SECONDS"),
			},
		}
	})

	return instance
}

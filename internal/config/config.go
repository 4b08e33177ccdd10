// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	GoogleBooks             `yaml:"google_books"`
	OpenLibrary             `yaml:"open_library"`
	PayPal                  `yaml:"paypal"`
	RateLimit               `yaml:"rate_limit"`
	Cache                   `yaml:"cache"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"15s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey    string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL        time.Duration `yaml:"token_ttl" env-default:"1h"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env-default:"168h"`
}

// RabbitMQ настройки брокера для публикации событий подписок.
// Пустой URL отключает публикацию.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQExchange   string        `yaml:"exchange" env-default:"bookflix.events"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// GoogleBooks настройки клиента Google Books API.
type GoogleBooks struct {
	GoogleAPIKey     string        `yaml:"api_key" env:"GOOGLE_BOOKS_API_KEY"`
	GoogleBaseURL    string        `yaml:"base_url" env-default:"https://www.googleapis.com/books/v1"`
	GoogleTimeout    time.Duration `yaml:"timeout" env-default:"10s"`
	GoogleMaxResults int           `yaml:"max_results" env-default:"40"`
}

// OpenLibrary настройки клиента OpenLibrary.
type OpenLibrary struct {
	OpenLibraryBaseURL   string        `yaml:"base_url" env-default:"https://openlibrary.org"`
	OpenLibraryCoversURL string        `yaml:"covers_url" env-default:"https://covers.openlibrary.org"`
	OpenLibraryTimeout   time.Duration `yaml:"timeout" env-default:"10s"`
	OpenLibraryLimit     int           `yaml:"limit" env-default:"20"`
}

// PayPal настройки платежного шлюза.
type PayPal struct {
	PayPalClientID  string        `yaml:"client_id" env:"PAYPAL_CLIENT_ID"`
	PayPalSecret    string        `yaml:"secret" env:"PAYPAL_SECRET"`
	PayPalBaseURL   string        `yaml:"base_url" env-default:"https://api-m.sandbox.paypal.com"`
	PayPalReturnURL string        `yaml:"return_url" env-default:"http://localhost:3000/subscriptions/success"`
	PayPalCancelURL string        `yaml:"cancel_url" env-default:"http://localhost:3000/subscriptions/cancel"`
	PayPalTimeout   time.Duration `yaml:"timeout" env-default:"10s"`
}

// RateLimit ограничение запросов на один клиентский IP.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

// Cache время жизни кешированных данных.
type Cache struct {
	TiersTTL time.Duration `yaml:"tiers_ttl" env-default:"1h"`
	ListsTTL time.Duration `yaml:"lists_ttl" env-default:"30m"`
}

// MustLoad функция для загрузки конфига, путь к файлу берется из CONFIG_PATH.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает конфиг из файла и переменных окружения.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  MaxRetries: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"  RefreshTokenTTL: %s\n"+
			"RabbitMQ:\n"+
			"  Enabled: %t\n"+
			"  Exchange: %s\n"+
			"GoogleBooks:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"OpenLibrary:\n"+
			"  BaseURL: %s\n"+
			"PayPal:\n"+
			"  BaseURL: %s\n",
		c.Env,
		c.MigrationsPath,
		c.AddressRedis,
		c.DB,
		c.MaxRetries,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.RefreshTokenTTL,
		c.RabbitMQURL != "",
		c.RabbitMQExchange,
		c.GoogleBaseURL,
		c.GoogleTimeout,
		c.OpenLibraryBaseURL,
		c.PayPalBaseURL,
	)
}

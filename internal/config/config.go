// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек сервиса.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	RabbitConnection        string `yaml:"rabbit_connection" env:"RABBIT_CONNECTION"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Admin                   `yaml:"admin"`
	Generator               `yaml:"generator"`
	Payment                 `yaml:"payment"`
	Policy                  `yaml:"policy"`
	SMTP                    `yaml:"smtp"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP    string        `yaml:"addresshttp" env-default:"0.0.0.0:8080"`
	TimeoutHTTP    time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" env-default:"10"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env-default:"20"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"720h"`
}

// Admin учётные данные административного входа, задаваемые при развёртывании.
type Admin struct {
	AdminUsername string `yaml:"admin_username" env:"ADMIN_USERNAME"`
	AdminPassword string `yaml:"admin_password" env:"ADMIN_PASSWORD"`
}

// Generator настройки внешнего генератора альтернатив.
type Generator struct {
	GeneratorURL     string        `yaml:"generator_url" env:"GENERATOR_URL"`
	GeneratorAPIKey  string        `yaml:"generator_api_key" env:"GENERATOR_API_KEY"`
	GeneratorTimeout time.Duration `yaml:"generator_timeout" env-default:"10s"`
}

// Payment настройки платёжного шлюза и цены премиум-подписки.
type Payment struct {
	ShopID        string `yaml:"shop_id" env:"PAYMENT_SHOP_ID"`
	SecretKey     string `yaml:"secret_key" env:"PAYMENT_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"PAYMENT_WEBHOOK_SECRET"`
	PremiumPrice  string `yaml:"premium_price" env-default:"199.00"`
}

// Policy переключатели спорных правил поведения.
type Policy struct {
	RequireMutualFollow bool `yaml:"require_mutual_follow" env-default:"true"`
	AllowReroll         bool `yaml:"allow_reroll" env-default:"true"`
	StrictImplementOnce bool `yaml:"strict_implement_once" env-default:"false"`
	FreeDailyQueries    int  `yaml:"free_daily_queries" env-default:"3"`
}

// SMTP настройки почтового транспорта для воркера отправки писем.
type SMTP struct {
	SMTPHost string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"smtp_port" env-default:"587"`
	SMTPUser string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPass string `yaml:"smtp_pass" env:"SMTP_PASS"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH, падает при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек сервиса Vivu Travel
type Config struct {
	Env                     string        `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	RabbitURL               string        `yaml:"rabbit_url" env:"RABBIT_URL"`
	RabbitMaxRetries        int           `yaml:"rabbit_max_retries" env-default:"5"`
	RabbitRetryDelay        time.Duration `yaml:"rabbit_retry_delay" env-default:"3s"`
	ClientURL               string        `yaml:"client_url" env:"CLIENT_URL"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	GoogleOAuth             `yaml:"google_oauth"`
	Gemini                  `yaml:"gemini"`
	Places                  `yaml:"places"`
	PayOS                   `yaml:"payos"`
	Cloudinary              `yaml:"cloudinary"`
	SMTP                    `yaml:"smtp"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"0.0.0.0:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDR"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"168h"`
}

// GoogleOAuth настройки проверки ID-токенов Google
type GoogleOAuth struct {
	ClientID  string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	IssuerURL string `yaml:"issuer_url" env-default:"https://accounts.google.com"`
}

// Gemini настройки AI-ассистента
type Gemini struct {
	GeminiAPIKey string        `yaml:"api_key" env:"GEMINI_API_KEY"`
	Model        string        `yaml:"model" env-default:"gemini-2.5-pro"`
	MaxTokens    int32         `yaml:"max_tokens" env-default:"1000"`
	Temperature  float32       `yaml:"temperature" env-default:"0.7"`
	SessionTTL   time.Duration `yaml:"session_ttl" env-default:"30m"`
}

// Places настройки поиска мест через Google Places API
type Places struct {
	PlacesAPIKey  string        `yaml:"api_key" env:"GOOGLE_MAPS_API_KEY"`
	DefaultRadius int           `yaml:"default_radius" env-default:"10000"`
	Language      string        `yaml:"language" env-default:"vi"`
	PlacesTimeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// PayOS настройки платёжного провайдера
type PayOS struct {
	PayOSClientID string `yaml:"client_id" env:"PAYOS_CLIENT_ID"`
	PayOSAPIKey   string `yaml:"api_key" env:"PAYOS_API_KEY"`
	ChecksumKey   string `yaml:"checksum_key" env:"PAYOS_CHECKSUM_KEY"`
	PayOSAPIURL   string `yaml:"api_url" env-default:"https://api-merchant.payos.vn"`
}

// Cloudinary настройки облачного хранилища изображений
type Cloudinary struct {
	CloudName      string `yaml:"cloud_name" env:"CLOUDINARY_CLOUD_NAME"`
	CloudAPIKey    string `yaml:"api_key" env:"CLOUDINARY_API_KEY"`
	CloudAPISecret string `yaml:"api_secret" env:"CLOUDINARY_API_SECRET"`
	UploadFolder   string `yaml:"folder" env-default:"vivu-travel"`
}

// SMTP настройки почтового транспорта
type SMTP struct {
	SMTPHost string `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"smtp_port" env-default:"587"`
	SMTPUser string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPass string `yaml:"smtp_pass" env:"SMTP_PASS"`
}

// MustLoad функция для загрузки конфига, путь к файлу берется из переменной окружения CONFIG_PATH
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

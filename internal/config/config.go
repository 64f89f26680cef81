package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" validate:"oneof=dev stage prod"`
	BaseURL    string     `yaml:"base_url" env:"BASE_URL" validate:"required,url"`
	Storage    string     `yaml:"storage" env:"STORAGE" validate:"oneof=postgres memory"`
	ShortCode  ShortCode  `yaml:"short_code"`
	Alias      Alias      `yaml:"alias"`
	Expiry     Expiry     `yaml:"expiry"`
	Auth       Auth       `yaml:"auth"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Postgres   Postgres   `yaml:"postgres"`
	Redis      Redis      `yaml:"redis"`
}

type ShortCode struct {
	Length      int    `yaml:"length" env:"SHORT_CODE_LENGTH" validate:"min=1,max=20"`
	Alphabet    string `yaml:"alphabet" env:"SHORT_CODE_ALPHABET" validate:"min=2,max=255"`
	MaxAttempts int    `yaml:"max_attempts" env:"SHORT_CODE_MAX_ATTEMPTS" validate:"min=1"`
}

type Alias struct {
	MinLength int `yaml:"min_length" env:"MIN_ALIAS_LENGTH" validate:"min=1,max=20"`
}

type Expiry struct {
	AnonDays int `yaml:"anon_days" env:"ANON_EXPIRY_DAYS" validate:"min=1"`
	AuthDays int `yaml:"auth_days" env:"AUTH_EXPIRY_DAYS" validate:"min=1"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer    string `yaml:"issuer" env:"JWT_ISSUER"`
}

type HTTPServer struct {
	Port           int           `yaml:"port" env:"HTTP_SERVER_PORT" validate:"min=1,max=65535"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT"`
	MaxHeaderBytes int           `yaml:"max_header_bytes" env:"HTTP_SERVER_MAX_HEADER_BYTES"`
	CertFile       string        `yaml:"cert_file" env:"HTTP_SERVER_CERT_FILE"`
	KeyFile        string        `yaml:"key_file" env:"HTTP_SERVER_KEY_FILE"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user" env:"POSTGRES_USER"`
	Password        string        `yaml:"password" env:"POSTGRES_PASSWORD"`
	Host            string        `yaml:"host" env:"POSTGRES_HOST"`
	Port            int           `yaml:"port" env:"POSTGRES_PORT"`
	DB              string        `yaml:"db" env:"POSTGRES_DB"`
	SSLMode         string        `yaml:"sslmode" env:"POSTGRES_SSLMODE"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env:"POSTGRES_CONN_MAX_IDLE_TIME"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"POSTGRES_CONN_MAX_LIFETIME"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"POSTGRES_MAX_IDLE_CONNS"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"POSTGRES_MAX_OPEN_CONNS"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type Redis struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED"`
	Addr     string        `yaml:"addr" env:"REDIS_ADDR" validate:"required_if=Enabled true"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" validate:"min=0"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL"`
}

var defaultRedis = Redis{
	Addr: "localhost:6379",
	TTL:  time.Hour,
}

// Load builds the configuration from defaults, the YAML file at path and the
// environment, in that order of precedence. An empty path skips the file.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to read environment: %w", op, err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}

	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.BaseURL = "http://localhost:8080"
	cfg.Storage = StoragePostgres
	cfg.ShortCode = ShortCode{
		Length:      6,
		Alphabet:    "abcdefghijklmnopqrstuvwxyz0123456789",
		MaxAttempts: 10,
	}
	cfg.Alias = Alias{MinLength: 8}
	cfg.Expiry = Expiry{AnonDays: 30, AuthDays: 90}
	cfg.Auth = Auth{Issuer: "shortlink"}
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
}

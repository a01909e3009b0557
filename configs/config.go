package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/aq2208/gorder-checkout/internal/pricing"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		GRPCAddr string `koanf:"grpc_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	Pricing pricing.Rules `koanf:"pricing"`

	Session struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"session"`

	Checkout struct {
		SubmitTimeout time.Duration `koanf:"submit_timeout"`
	} `koanf:"checkout"`

	Catalog struct {
		BaseURL   string        `koanf:"base_url"`
		Timeout   time.Duration `koanf:"timeout"`
		CacheTTL  time.Duration `koanf:"cache_ttl"`
		CacheSize int           `koanf:"cache_size"`
	} `koanf:"catalog"`

	Intake struct {
		URL string `koanf:"url"`
	} `koanf:"intake"`

	Challenge struct {
		URL     string        `koanf:"url"`
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"challenge"`

	MySQL struct {
		DSN string `koanf:"dsn"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Rabbit struct {
		URL string `koanf:"url"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
		GroupID string   `koanf:"group_id"`
	} `koanf:"kafka"`

	Security struct {
		JWTSecret string         `koanf:"jwt_secret"`
		Issuer    string         `koanf:"issuer"`
		Audience  string         `koanf:"audience"`
		TTL       time.Duration  `koanf:"ttl"`
		Clients   []ClientConfig `koanf:"clients"`
	} `koanf:"security"`
}

// ClientConfig registers an ops client allowed to request tokens.
type ClientConfig struct {
	ID     string   `koanf:"id"`
	Secret string   `koanf:"secret"`
	Perms  []string `koanf:"perms"`
}

const envPrefix = "CHECKOUT_"

func Load(pathDir, envName string) (Config, error) {
	// 0) .env in the working directory, if any; real env vars win
	_ = godotenv.Load()

	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	if envName != "" {
		_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())
	}

	// 3) environment variables override (prefix CHECKOUT_, nested with __)
	// e.g. CHECKOUT_MYSQL__DSN, CHECKOUT_REDIS__PASSWORD
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks what every command needs. Broker and database settings
// are optional; the commands that require them check on their own.
func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url required")
	}
	if c.Intake.URL == "" {
		return fmt.Errorf("intake.url required")
	}
	if c.Pricing.ExpressFee < 0 || c.Pricing.StandardFee < 0 || c.Pricing.FreeShippingThreshold < 0 {
		return fmt.Errorf("pricing fees and threshold must not be negative")
	}
	if len(c.Security.Clients) > 0 && c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret required when clients are configured")
	}
	return nil
}

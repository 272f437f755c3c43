package app

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	Env      string `env:"OZRAN_ENV" envDefault:"development"`
	HTTPAddr string `env:"OZRAN_HTTP_ADDR"`
	// Port is the platform-provided listen port, used when HTTPAddr is unset.
	Port      string `env:"PORT"`
	LogLevel  string `env:"OZRAN_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"OZRAN_LOG_FORMAT" envDefault:"json"`

	ReadHeaderTimeout time.Duration `env:"OZRAN_HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"OZRAN_HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"OZRAN_HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"OZRAN_HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"OZRAN_HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`

	// Cookie transport.
	UseHTTPS         bool   `env:"OZRAN_USE_HTTPS"`
	TrustProxy       bool   `env:"OZRAN_TRUST_PROXY"`
	CrossSiteCookies bool   `env:"OZRAN_CROSS_SITE_COOKIES"`
	CookieName       string `env:"OZRAN_COOKIE_NAME" envDefault:"token"`

	JWTSecret string `env:"OZRAN_JWT_SECRET"`
	// LegacyJWTSecret is read when OZRAN_JWT_SECRET is unset.
	LegacyJWTSecret string        `env:"JWT_SECRET"`
	SessionTTL      time.Duration `env:"OZRAN_SESSION_TTL" envDefault:"1h"`
	BcryptCost      int           `env:"OZRAN_BCRYPT_COST" envDefault:"10"`

	// Store selects "postgres" or "memory".
	Store       string `env:"OZRAN_STORE" envDefault:"postgres"`
	DatabaseURL string `env:"OZRAN_DATABASE_URL"`
	DBMaxConns  int32  `env:"OZRAN_DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"OZRAN_DB_MIN_CONNS" envDefault:"0"`
	Migrate     bool   `env:"OZRAN_MIGRATE" envDefault:"true"`

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool `env:"OZRAN_READINESS_REQUIRE_DB"`

	RedisURL        string        `env:"OZRAN_REDIS_URL"`
	RateLimitMax    int           `env:"OZRAN_RATE_LIMIT_MAX" envDefault:"100"`
	RateLimitWindow time.Duration `env:"OZRAN_RATE_LIMIT_WINDOW" envDefault:"15m"`

	ClientURLs []string `env:"OZRAN_CLIENT_URLS" envSeparator:","`
	PublicDir  string   `env:"OZRAN_PUBLIC_DIR" envDefault:"public"`

	PublicBaseURL string `env:"OZRAN_PUBLIC_BASE_URL" envDefault:"http://localhost:10000"`
	TrainingURL   string `env:"OZRAN_TRAINING_URL" envDefault:"https://www.cisa.gov/secure-our-world/recognize-and-report-phishing"`
	AlertEmail    string `env:"OZRAN_PHISHING_ALERT_EMAIL"`

	// MailProvider selects "postmark", "smtp" or "log".
	MailProvider         string `env:"OZRAN_MAIL_PROVIDER" envDefault:"log"`
	MailFrom             string `env:"OZRAN_MAIL_FROM" envDefault:"security@ozran.local"`
	PostmarkServerToken  string `env:"OZRAN_POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"OZRAN_POSTMARK_ACCOUNT_TOKEN"`
	SMTPHost             string `env:"OZRAN_SMTP_HOST"`
	SMTPPort             int    `env:"OZRAN_SMTP_PORT" envDefault:"587"`
	SMTPUsername         string `env:"OZRAN_SMTP_USERNAME"`
	SMTPPassword         string `env:"OZRAN_SMTP_PASSWORD"`
}

// LoadConfig loads an optional .env file, then parses Config from the environment.
func LoadConfig() (Config, error) {
	loadEnvFile()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if cfg.HTTPAddr == "" {
		port := strings.TrimSpace(cfg.Port)
		if port == "" {
			port = "10000"
		}
		cfg.HTTPAddr = net.JoinHostPort("0.0.0.0", port)
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.LegacyJWTSecret
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.MailProvider = strings.ToLower(strings.TrimSpace(cfg.MailProvider))
	cfg.ClientURLs = trimList(cfg.ClientURLs)

	return cfg, nil
}

// loadEnvFile reads .env from the working directory or its parent. Existing variables win.
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}
	_ = godotenv.Load(filepath.Join(parent, ".env"))
}

// Production reports whether OZRAN_ENV selects production mode.
func (c Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// MemoryStore reports whether user data lives in process memory.
func (c Config) MemoryStore() bool { return c.Store == "memory" }

// Validate enforces startup invariants. Errors are fatal.
func (c Config) Validate() error {
	var errs []error

	switch c.Store {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("OZRAN_DATABASE_URL is required unless OZRAN_STORE=memory"))
		}
	case "memory":
		if c.Production() {
			errs = append(errs, errors.New("OZRAN_STORE=memory is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("OZRAN_STORE must be postgres or memory, got %q", c.Store))
	}

	if _, _, err := sessionKeys(c); err != nil {
		errs = append(errs, err)
	}

	if c.CrossSiteCookies && !c.Production() && !c.UseHTTPS {
		errs = append(errs, errors.New("OZRAN_CROSS_SITE_COOKIES requires OZRAN_ENV=production or OZRAN_USE_HTTPS=true"))
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("OZRAN_RATE_LIMIT_MAX and OZRAN_RATE_LIMIT_WINDOW must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("OZRAN_SESSION_TTL must be positive"))
	}

	switch c.MailProvider {
	case "log", "postmark", "smtp":
	default:
		errs = append(errs, fmt.Errorf("OZRAN_MAIL_PROVIDER must be postmark, smtp or log, got %q", c.MailProvider))
	}

	return errors.Join(errs...)
}

func trimList(in []string) []string {
	out := in[:0]
	for _, s := range in {
		s = strings.TrimRight(strings.TrimSpace(s), "/")
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

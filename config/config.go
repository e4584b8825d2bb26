package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTP     HTTPConfig
	DB       DBConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Telegram TelegramConfig
	Delivery DeliveryConfig
	Log      LogConfig
	Cron     CronConfig
}

type HTTPConfig struct {
	Addr         string
	RateLimitRPS int
	RateBurst    int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// URL returns the pgx connection string.
func (c DBConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	return u.String()
}

type StorageConfig struct {
	Driver  string // "file" or "postgres"
	DataDir string
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminPassword string
}

type TelegramConfig struct {
	Token       string
	AdminChatID int64 // receives new order and status notifications
}

type DeliveryConfig struct {
	WeekdayRatePerKm decimal.Decimal
	HolidayRatePerKm decimal.Decimal
	VATRate          decimal.Decimal
	Holidays         []time.Time
	MaxWarnings      int
	// Location is the zone in which Sundays and holiday dates are judged.
	Location *time.Location
}

type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

type CronConfig struct {
	DailyResetSpec string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("DB_PORT: %w", err)
	}
	rps, err := strconv.Atoi(getEnv("RATE_LIMIT_RPS", "20"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "40"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}
	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	adminChat, err := strconv.ParseInt(getEnv("TELEGRAM_ADMIN_CHAT_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID: %w", err)
	}
	maxWarnings, err := strconv.Atoi(getEnv("MAX_WARNINGS", "3"))
	if err != nil {
		return nil, fmt.Errorf("MAX_WARNINGS: %w", err)
	}
	if maxWarnings < 1 {
		return nil, fmt.Errorf("MAX_WARNINGS: must be >= 1, got %d", maxWarnings)
	}
	weekday, err := parseRate("WEEKDAY_RATE_PER_KM", "350")
	if err != nil {
		return nil, err
	}
	holiday, err := parseRate("HOLIDAY_RATE_PER_KM", "500")
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	vat, err := decimal.NewFromString(getEnv("VAT_RATE", "0.13"))
	if err != nil {
		return nil, fmt.Errorf("VAT_RATE: %w", err)
	}
	holidays, err := ParseHolidays(getEnv("HOLIDAYS", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:         getEnv("HTTP_ADDR", ":8080"),
			RateLimitRPS: rps,
			RateBurst:    burst,
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     port,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "delivery"),
		},
		Storage: StorageConfig{
			Driver:  getEnv("STORAGE", StorageFile),
			DataDir: getEnv("DATA_DIR", "data"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			TokenTTL:      ttl,
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		Telegram: TelegramConfig{
			Token:       getEnv("TELEGRAM_TOKEN", ""),
			AdminChatID: adminChat,
		},
		Delivery: DeliveryConfig{
			WeekdayRatePerKm: weekday,
			HolidayRatePerKm: holiday,
			VATRate:          vat,
			Holidays:         holidays,
			MaxWarnings:      maxWarnings,
			Location:         loc,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Cron: CronConfig{
			DailyResetSpec: getEnv("DAILY_RESET_CRON", "0 0 * * *"),
		},
	}
	if cfg.Storage.Driver != StorageFile && cfg.Storage.Driver != StoragePostgres {
		return nil, fmt.Errorf("STORAGE: unknown driver %q", cfg.Storage.Driver)
	}
	return cfg, nil
}

// parseRate reads a per-km rate: positive, whole cents.
func parseRate(key, def string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, def))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	if !d.IsPositive() || !d.Equal(d.Round(2)) {
		return decimal.Zero, fmt.Errorf("%s: %s must be > 0 with at most 2 decimals", key, d)
	}
	return d, nil
}

// ParseHolidays parses a comma separated list of YYYY-MM-DD dates.
func ParseHolidays(s string) ([]time.Time, error) {
	var out []time.Time
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.Parse("2006-01-02", part)
		if err != nil {
			return nil, fmt.Errorf("HOLIDAYS: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

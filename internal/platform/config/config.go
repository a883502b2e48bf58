package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Addr                   string
	Environment            string
	DatabaseURL            string
	JWTSecret              string
	RunMigrations          bool
	MigrationsDir          string
	MaxBodyBytes           int64
	RateLimitPerMinute     int
	CORSAllowedOrigins     []string
	PayrollWorkers         int
	JobTimeout             time.Duration
	MetricsEnabled         bool
	OvertimeMultiplier     decimal.Decimal
	StandardHoursPerDay    decimal.Decimal
	WorkingDaysPerMonth    decimal.Decimal
	UAEGratuityFirstDays   int
	UAEGratuityLaterDays   int
	UAEGratuityFirstYears  int
	UAEAirTicketAnnualFare decimal.Decimal
}

func Load() Config {
	return Config{
		Addr:                   getEnv("APP_ADDR", ":8080"),
		Environment:            getEnv("APP_ENV", "development"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		RunMigrations:          getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:          getEnv("MIGRATIONS_DIR", "migrations"),
		MaxBodyBytes:           int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMinute:     getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSAllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		PayrollWorkers:         getEnvInt("PAYROLL_WORKERS", 8),
		JobTimeout:             getEnvDuration("JOB_TIMEOUT", 10*time.Minute),
		MetricsEnabled:         getEnvBool("METRICS_ENABLED", true),
		OvertimeMultiplier:     getEnvDecimal("OVERTIME_MULTIPLIER", decimal.RequireFromString("1.5")),
		StandardHoursPerDay:    getEnvDecimal("STANDARD_HOURS_PER_DAY", decimal.NewFromInt(8)),
		WorkingDaysPerMonth:    getEnvDecimal("WORKING_DAYS_PER_MONTH", decimal.NewFromInt(26)),
		UAEGratuityFirstDays:   getEnvInt("UAE_GRATUITY_FIRST_DAYS", 21),
		UAEGratuityLaterDays:   getEnvInt("UAE_GRATUITY_LATER_DAYS", 30),
		UAEGratuityFirstYears:  getEnvInt("UAE_GRATUITY_FIRST_YEARS", 5),
		UAEAirTicketAnnualFare: getEnvDecimal("UAE_AIR_TICKET_ANNUAL_FARE", decimal.NewFromInt(2400)),
	}
}

func (c Config) Production() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func (c Config) Validate() error {
	if c.Production() {
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.PayrollWorkers <= 0 {
		return fmt.Errorf("PAYROLL_WORKERS must be positive")
	}
	if !c.OvertimeMultiplier.IsPositive() {
		return fmt.Errorf("OVERTIME_MULTIPLIER must be positive")
	}
	if !c.StandardHoursPerDay.IsPositive() || !c.WorkingDaysPerMonth.IsPositive() {
		return fmt.Errorf("STANDARD_HOURS_PER_DAY and WORKING_DAYS_PER_MONTH must be positive")
	}
	if c.UAEGratuityFirstDays <= 0 || c.UAEGratuityLaterDays <= 0 || c.UAEGratuityFirstYears < 0 {
		return fmt.Errorf("UAE gratuity settings must be positive")
	}
	if c.UAEAirTicketAnnualFare.IsNegative() {
		return fmt.Errorf("UAE_AIR_TICKET_ANNUAL_FARE must not be negative")
	}
	return nil
}

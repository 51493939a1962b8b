package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	Stripe     StripeConfig
	Razorpay   RazorpayConfig
	Checkout   CheckoutConfig
	Mail       MailConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	BaseURL      string // public base URL, used to build provider redirect/callback URLs
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// StripeConfig holds keys for the card provider (Stripe Checkout Sessions).
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// RazorpayConfig holds keys for the local/UPI provider.
type RazorpayConfig struct {
	KeyID     string
	KeySecret string
}

type CheckoutConfig struct {
	SuccessPath string // client destination after a successful payment
	CancelPath  string
	// A pending intent older than this is eligible for the reconciliation sweep.
	PendingSweepAfter time.Duration
	SweepSchedule     string // cron spec for the pending-intent sweeper
}

type MailConfig struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[Config] loaded .env")
	}
	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8088"),
			Env:          getenv("APP_ENV", "development"),
			BaseURL:      getenv("BASE_URL", "http://localhost:8088"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "learnly:learnly@tcp(localhost:3306)/learnly?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  getenv("JWT_ACCESS_SECRET", "change-me-in-production"),
			RefreshSecret: getenv("JWT_REFRESH_SECRET", "change-me-refresh"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "learnly",
		},
		OAuth: OAuthConfig{
			GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},
		Razorpay: RazorpayConfig{
			KeyID:     os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		},
		Checkout: CheckoutConfig{
			SuccessPath:       getenv("CHECKOUT_SUCCESS_PATH", "/learn"),
			CancelPath:        getenv("CHECKOUT_CANCEL_PATH", "/courses"),
			PendingSweepAfter: getenvDuration("PENDING_SWEEP_AFTER", 2*time.Hour),
			SweepSchedule:     getenv("PENDING_SWEEP_SCHEDULE", "@every 30m"),
		},
		Mail: MailConfig{
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			FromEmail:      getenv("MAIL_FROM_EMAIL", "no-reply@learnly.app"),
			FromName:       getenv("MAIL_FROM_NAME", "Learnly"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/campus-auth/internal/domain"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort   string
	AppEnv    string
	LogLevel  string
	LogFormat string // "json" | "text"

	StoreBackend   string // "dynamo" | "memory"
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	StoreTimeout   time.Duration

	S3BucketName  string
	AvatarStorage string // "inline" | "s3"; inline is memory-only

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	Notifier      string // "smtp" | "sns" | "log"
	NotifyTimeout time.Duration
	SMTPHost      string
	SMTPPort      string
	SMTPFrom      string
	SMTPUsername  string
	SMTPPassword  string
	SNSRegion     string
	SNSTopicARN   string

	InstitutionalSuffix     string
	DefaultUniversityDomain string
	Branding                domain.Branding
	UnsupportedPath         string
	SeedUniversities        []SeedUniversity

	CodeTTL         time.Duration
	TrustedTokenTTL time.Duration
	SweepInterval   time.Duration

	TestMode          bool
	TestBypassCode    string
	TestReservedEmail string

	AllowedOrigins []string // CORS allowed origins
	RateLimitRPS   float64
	RateLimitBurst int
	TrustedProxies []string // CIDRs whose forwarding headers the rate limiter honours
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Universities      string
	Accounts          string
	Usernames         string
	VerificationCodes string
	Profiles          string
}

// SeedUniversity is a university inserted at startup when its domain is absent.
type SeedUniversity struct {
	Name   string
	Domain string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	store := getEnv("STORE_BACKEND", "dynamo")
	return &Config{
		AppPort:   getEnv("APP_PORT", "3000"),
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		StoreBackend:   store,
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Universities:      getEnv("DYNAMO_TABLE_UNIVERSITIES", "universities"),
			Accounts:          getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
			Usernames:         getEnv("DYNAMO_TABLE_USERNAMES", "usernames"),
			VerificationCodes: getEnv("DYNAMO_TABLE_VERIFICATION_CODES", "verification_codes"),
			Profiles:          getEnv("DYNAMO_TABLE_PROFILES", "profiles"),
		},
		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 5*time.Second),

		S3BucketName:  getEnv("S3_BUCKET_NAME", "campus-auth-avatars"),
		AvatarStorage: getEnv("AVATAR_STORAGE", defaultAvatarStorage(store)),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,

		Notifier:      getEnv("NOTIFIER", "log"),
		NotifyTimeout: getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "1025"),
		SMTPFrom:      getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SNSRegion:     getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN:   getEnv("SNS_TOPIC_ARN", ""),

		InstitutionalSuffix:     strings.ToLower(getEnv("INSTITUTIONAL_SUFFIX", ".edu")),
		DefaultUniversityDomain: strings.ToLower(getEnv("DEFAULT_UNIVERSITY_DOMAIN", "northeastern.edu")),
		Branding: domain.Branding{
			Domain:          strings.ToLower(getEnv("BRANDED_DOMAIN", "northeastern.edu")),
			BrandName:       getEnv("BRANDED_MARKETPLACE_NAME", "HuskyMart"),
			MarketplacePath: getEnv("BRANDED_MARKETPLACE_PATH", "/huskymart"),
		},
		UnsupportedPath:  getEnv("UNSUPPORTED_PATH", "/unsupported"),
		SeedUniversities: ParseSeedUniversities(getEnv("SEED_UNIVERSITIES", "Northeastern University=northeastern.edu")),

		CodeTTL:         time.Duration(getEnvInt("CODE_TTL_MINUTES", 10)) * time.Minute,
		TrustedTokenTTL: time.Duration(getEnvInt("TRUSTED_TOKEN_TTL_DAYS", 30)) * 24 * time.Hour,
		SweepInterval:   getEnvDuration("SWEEP_INTERVAL", time.Hour),

		TestMode:          getEnvBool("TEST_MODE", false),
		TestBypassCode:    getEnv("TEST_BYPASS_CODE", ""),
		TestReservedEmail: strings.ToLower(getEnv("TEST_RESERVED_EMAIL", "")),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 10),
		TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
	}
}

// Validate rejects configurations that must never reach a running server.
func (c *Config) Validate() error {
	var errs []error
	if c.TestMode && c.AppEnv == "production" {
		errs = append(errs, errors.New("TEST_MODE must not be enabled when APP_ENV=production"))
	}
	if c.DefaultUniversityDomain == "" {
		errs = append(errs, errors.New("DEFAULT_UNIVERSITY_DOMAIN is required"))
	} else if !c.seeds(c.DefaultUniversityDomain) {
		errs = append(errs, fmt.Errorf("DEFAULT_UNIVERSITY_DOMAIN %q is not in SEED_UNIVERSITIES", c.DefaultUniversityDomain))
	}
	switch c.StoreBackend {
	case "dynamo", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	switch c.Notifier {
	case "smtp", "log":
	case "sns":
		if c.SNSTopicARN == "" {
			errs = append(errs, errors.New("SNS_TOPIC_ARN is required when NOTIFIER=sns"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFIER %q", c.Notifier))
	}
	switch c.AvatarStorage {
	case "s3":
	case "inline":
		if c.StoreBackend == "dynamo" {
			errs = append(errs, errors.New("AVATAR_STORAGE=inline cannot hold avatars within the DynamoDB item size limit; use s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AVATAR_STORAGE %q", c.AvatarStorage))
	}
	if _, err := c.ProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ProxyPrefixes parses TrustedProxies. A bare address is treated as a single-host prefix.
func (c *Config) ProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		if p, err := netip.ParsePrefix(raw); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q", raw)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func defaultAvatarStorage(store string) string {
	if store == "memory" {
		return "inline"
	}
	return "s3"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) seeds(d string) bool {
	for _, s := range c.SeedUniversities {
		if s.Domain == d {
			return true
		}
	}
	return false
}

// ParseSeedUniversities parses "Name=domain;Name=domain". Malformed entries are skipped.
func ParseSeedUniversities(raw string) []SeedUniversity {
	var out []SeedUniversity
	for _, part := range strings.Split(raw, ";") {
		name, d, ok := strings.Cut(part, "=")
		name, d = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(d))
		if !ok || name == "" || d == "" {
			continue
		}
		out = append(out, SeedUniversity{Name: name, Domain: d})
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

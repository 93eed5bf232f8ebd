package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Ledger, identity and dispatcher backends selectable at startup.
const (
	BackendDynamo   = "dynamo"
	BackendPostgres = "postgres"

	IdentityGoTrue = "gotrue"
	IdentityLocal  = "local"

	ProviderRelay    = "relay"
	ProviderSNS      = "sns"
	ProviderTwilio   = "twilio"
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort        string
	AppEnv         string
	LogLevel       string
	AllowedOrigins []string // CORS allowed origins

	CountryCode          string
	OTPTTL               time.Duration
	VerificationTokenTTL time.Duration
	RateLimitRPS         float64
	RateLimitBurst       int
	TrustedProxies       []string // peers allowed to set X-Forwarded-For / X-Real-Ip
	HTTPClientTimeout    time.Duration

	LedgerBackend  string
	DatabaseURL    string
	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	IdentityBackend  string
	GoTrueURL        string
	GoTrueServiceKey string

	SMSProvider      string
	SMSRelayURL      string
	SMSRelayAPIKey   string
	SMSRelayRoute    string
	SNSRegion        string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string

	EmailProvider    string
	EmailRelayURL    string
	EmailRelayAPIKey string
	EmailFrom        string
	SMTPHost         string
	SMTPPort         string
	SMTPUsername     string
	SMTPPassword     string
	SendGridAPIKey   string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	RetentionCron  string
	RetentionGrace time.Duration
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	OTPs     string
	Tokens   string
	Accounts string
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),

		CountryCode:          getEnv("COUNTRY_CODE", "91"),
		OTPTTL:               getEnvDuration("OTP_TTL", 5*time.Minute),
		VerificationTokenTTL: getEnvDuration("VERIFICATION_TOKEN_TTL", 15*time.Minute),
		RateLimitRPS:         getEnvFloat("RATE_LIMIT_RPS", 1),
		RateLimitBurst:       getEnvInt("RATE_LIMIT_BURST", 5),
		TrustedProxies:       getEnvList("TRUSTED_PROXIES"),
		HTTPClientTimeout:    getEnvDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second),

		LedgerBackend:  getEnv("LEDGER_BACKEND", BackendDynamo),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AWSRegion:      getEnv("AWS_REGION", "ap-south-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			OTPs:     getEnv("DYNAMO_TABLE_OTPS", "otp_verifications"),
			Tokens:   getEnv("DYNAMO_TABLE_TOKENS", "verification_tokens"),
			Accounts: getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
		},

		IdentityBackend:  getEnv("IDENTITY_BACKEND", IdentityGoTrue),
		GoTrueURL:        strings.TrimRight(getEnv("GOTRUE_URL", "http://localhost:9999"), "/"),
		GoTrueServiceKey: getEnv("GOTRUE_SERVICE_KEY", ""),

		SMSProvider:      getEnv("SMS_PROVIDER", ProviderRelay),
		SMSRelayURL:      getEnv("SMS_RELAY_URL", "https://www.fast2sms.com/dev/bulkV2"),
		SMSRelayAPIKey:   getEnv("SMS_RELAY_API_KEY", ""),
		SMSRelayRoute:    getEnv("SMS_RELAY_ROUTE", "otp"),
		SNSRegion:        getEnv("SNS_REGION", "ap-south-1"),
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:       getEnv("TWILIO_FROM", ""),

		EmailProvider:    getEnv("EMAIL_PROVIDER", ProviderRelay),
		EmailRelayURL:    getEnv("EMAIL_RELAY_URL", "https://api.resend.com/emails"),
		EmailRelayAPIKey: getEnv("EMAIL_RELAY_API_KEY", ""),
		EmailFrom:        getEnv("EMAIL_FROM", "Salem Farm <noreply@salemfarm.in>"),
		SMTPHost:         getEnv("SMTP_HOST", "localhost"),
		SMTPPort:         getEnv("SMTP_PORT", "1025"),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", ""),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", time.Hour),

		RetentionCron:  getEnv("RETENTION_CRON", "0 3 * * *"),
		RetentionGrace: getEnvDuration("RETENTION_GRACE", 24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
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

// getEnvDuration accepts Go duration strings ("5m", "90s").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

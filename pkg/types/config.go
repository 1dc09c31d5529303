package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"30"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`

	// Public base URL used to build links in outgoing email
	SiteURL string `envconfig:"SITE_URL" default:"http://localhost:8080"`

	// Field extraction
	// "ocr" forwards uploads to the OCR service, "textlayer" reads the PDF text layer in-process
	Extractor     string `envconfig:"EXTRACTOR" default:"ocr"`
	OCRServiceURL string `envconfig:"OCR_SERVICE_URL"`
	MaxUploadMB   int64  `envconfig:"MAX_UPLOAD_MB" default:"25"`

	// Object storage
	StorageDriver          string `envconfig:"STORAGE_DRIVER" default:"s3"`
	StatementsBucket       string `envconfig:"STATEMENTS_BUCKET" default:"statements"`
	S3Endpoint             string `envconfig:"S3_ENDPOINT"`
	SupabaseURL            string `envconfig:"SUPABASE_URL"`
	SupabaseServiceRoleKey string `envconfig:"SUPABASE_SERVICE_ROLE_KEY"`

	// Email
	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	FromEmail    string `envconfig:"FROM_EMAIL" default:"North Falmouth Pharmacy <statements@example.com>"`

	// Statement delivery
	OTPTTLSec         int `envconfig:"OTP_TTL_SEC" default:"600"`
	SignedURLTTLSec   int `envconfig:"SIGNED_URL_TTL_SEC" default:"600"`
	OTPMaxAttempts    int `envconfig:"OTP_MAX_ATTEMPTS" default:"5"`
	NotifyConcurrency int `envconfig:"NOTIFY_CONCURRENCY" default:"4"`

	// Cognito Auth
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}

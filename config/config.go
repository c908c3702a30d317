package config

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/city-reporter-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Environment  string

	CloudinaryURL string
	UploadFolder  string

	SendGridAPIKey     string
	EmailFromAddress   string
	EmailFromName      string
	EmailMode          string
	EmailShadowAddress string

	UploadTimeout     time.Duration
	NotifyTimeout     time.Duration
	RequestTimeout    time.Duration
	NotifyConcurrency int

	AdminJWTSecret string

	PublicRatePerMinute int
	PublicRateBurst     int

	DigestCron       string
	EnableSeedRoutes bool
}

// New sets up all config related services
func New() *Config {
	env := getEnv("APP_ENV", "local")

	//setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: getEnv("DB_NAME", "city-reporter"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         getEnv("PORT", "5001"),
		Environment:  env,

		CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
		UploadFolder:  getEnv("UPLOAD_FOLDER", "issue-reports"),

		SendGridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		EmailFromAddress:   getEnv("EMAIL_FROM_ADDRESS", "no-reply@cityreporter.lk"),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "SmartCity Reporter"),
		EmailMode:          os.Getenv("EMAIL_MODE"),
		EmailShadowAddress: os.Getenv("EMAIL_SHADOW_ADDRESS"),

		UploadTimeout:     getEnvDuration("UPLOAD_TIMEOUT", 30*time.Second),
		NotifyTimeout:     getEnvDuration("NOTIFY_TIMEOUT", 15*time.Second),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
		NotifyConcurrency: getEnvInt("NOTIFY_CONCURRENCY", 4),

		AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),

		PublicRatePerMinute: getEnvInt("PUBLIC_RATE_PER_MINUTE", 20),
		PublicRateBurst:     getEnvInt("PUBLIC_RATE_BURST", 5),

		DigestCron:       getEnv("DIGEST_CRON", "0 7 * * *"),
		EnableSeedRoutes: getEnvBool("ENABLE_SEED_ROUTES", false),
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err. The err is only logged; the body carries the
// message and a short, stable error kind.
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	ErrorKindStatus(message, http.StatusText(httpStatusCode), httpStatusCode, w, err)
}

// ErrorKindStatus is ErrorStatus with an explicit error kind in the response body
func ErrorKindStatus(message, kind string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With("error", err).Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(models.ErrorMessageResponse{
		Success: false,
		Response: models.MessageError{
			Message: message,
			Error:   kind,
		},
	})
	_, _ = w.Write(b)
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

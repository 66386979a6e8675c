// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/curelo/landingcms/internal/app/features/cmsapi"
	"github.com/curelo/landingcms/internal/app/system/leadsquared"
	"github.com/curelo/landingcms/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "LANDINGCMS"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, users_file, etc.
//   - Environment variables: LANDINGCMS_MONGO_URI, LANDINGCMS_USERS_FILE, etc.
//   - Command-line flags: --mongo_uri, --users_file, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "landingcms", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "landingcms-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie max age (e.g., 24h, 720h, 30m)"},

	// Rate limiting configuration
	{Name: "rate_limit_enabled", Default: true, Desc: "Enable rate limiting for login attempts"},
	{Name: "rate_limit_login_attempts", Default: 5, Desc: "Max failed login attempts before lockout"},
	{Name: "rate_limit_login_window", Default: "15m", Desc: "Time window for counting failed attempts"},
	{Name: "rate_limit_login_lockout", Default: "15m", Desc: "Lockout duration after exceeding limit"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},

	// Publishing tools authenticate with a Bearer key
	{Name: "api_key", Default: "", Desc: "API key for cmsctl and other publishers (empty disables API key auth)"},

	// Blob storage for document revisions
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./data/blobs", Desc: "Local storage path for document revisions"},
	{Name: "storage_local_url", Default: "/blobs", Desc: "URL prefix for local blobs"},

	// S3/CloudFront configuration
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "landingcms/", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront distribution URL"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to CloudFront private key file"},

	// Site content
	{Name: "content_max_bytes", Default: int(cmsapi.DefaultMaxBytes), Desc: "Max size of a published site document in bytes (default: 50 MiB)"},
	{Name: "content_keep_revisions", Default: 10, Desc: "Published revisions to keep when pruning"},

	// Image compression
	{Name: "image_max_width", Default: 1200, Desc: "Longest edge of embedded images after compression"},
	{Name: "image_quality", Default: 60, Desc: "JPEG quality for compressed images (1-100)"},

	// Landing page hosts (comma-separated) allowed to call /api/lead and /api/pages
	{Name: "public_origins", Default: "", Desc: "Comma-separated origins for the public endpoints (empty allows any)"},

	// LeadSquared CRM
	{Name: "leadsquared_access_key", Default: "", Desc: "LeadSquared access key"},
	{Name: "leadsquared_secret_key", Default: "", Desc: "LeadSquared secret key"},
	{Name: "leadsquared_base_url", Default: leadsquared.DefaultBaseURL, Desc: "LeadSquared API host"},

	// Handler deadlines
	{Name: "timeout_probe", Default: "5s", Desc: "Deadline for each health check probe"},
	{Name: "timeout_read", Default: "10s", Desc: "Deadline for loading content and revisions"},
	{Name: "timeout_publish", Default: "30s", Desc: "Deadline for compressing and storing a publish"},

	// Operator accounts
	{Name: "users_file", Default: "./data/users.json", Desc: "JSON file listing CMS operators"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, LANDINGCMS_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 24*time.Hour),

		// Rate limiting
		RateLimitEnabled:       appValues.Bool("rate_limit_enabled"),
		RateLimitLoginAttempts: appValues.Int("rate_limit_login_attempts"),
		RateLimitLoginWindow:   appValues.Duration("rate_limit_login_window", 15*time.Minute),
		RateLimitLoginLockout:  appValues.Duration("rate_limit_login_lockout", 15*time.Minute),

		CSRFKey: appValues.String("csrf_key"),
		APIKey:  appValues.String("api_key"),

		// Blob storage
		StorageType:      appValues.String("storage_type"),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),

		// S3/CloudFront
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageCFURL:       appValues.String("storage_cf_url"),
		StorageCFKeyPairID: appValues.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   appValues.String("storage_cf_key_path"),

		// Site content
		ContentMaxBytes:      int64(appValues.Int("content_max_bytes")),
		ContentKeepRevisions: appValues.Int("content_keep_revisions"),

		// Images
		ImageMaxWidth: appValues.Int("image_max_width"),
		ImageQuality:  appValues.Int("image_quality"),

		PublicOrigins: splitList(appValues.String("public_origins")),

		// LeadSquared
		LeadSquaredAccessKey: appValues.String("leadsquared_access_key"),
		LeadSquaredSecretKey: appValues.String("leadsquared_secret_key"),
		LeadSquaredBaseURL:   appValues.String("leadsquared_base_url"),

		// Deadlines
		TimeoutProbe:   appValues.Duration("timeout_probe", timeouts.DefaultProbe),
		TimeoutRead:    appValues.Duration("timeout_read", timeouts.DefaultRead),
		TimeoutPublish: appValues.Duration("timeout_publish", timeouts.DefaultPublish),

		UsersFile: appValues.String("users_file"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateLimits(appCfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	if appCfg.LeadSquaredAccessKey == "" || appCfg.LeadSquaredSecretKey == "" {
		logger.Warn("LeadSquared credentials not set; /api/lead will answer with a configuration error")
	}
	return nil
}

// splitList parses a comma-separated config value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validateLimits(appCfg AppConfig) error {
	if appCfg.ContentMaxBytes <= 0 {
		return fmt.Errorf("content_max_bytes must be positive, got %d", appCfg.ContentMaxBytes)
	}
	if appCfg.ContentKeepRevisions < 1 {
		return fmt.Errorf("content_keep_revisions must be at least 1, got %d", appCfg.ContentKeepRevisions)
	}
	if appCfg.ImageMaxWidth < 1 {
		return fmt.Errorf("image_max_width must be positive, got %d", appCfg.ImageMaxWidth)
	}
	if appCfg.ImageQuality < 1 || appCfg.ImageQuality > 100 {
		return fmt.Errorf("image_quality must be between 1 and 100, got %d", appCfg.ImageQuality)
	}
	if appCfg.UsersFile == "" {
		return fmt.Errorf("users_file is required")
	}
	if appCfg.RateLimitEnabled && appCfg.RateLimitLoginAttempts < 1 {
		return fmt.Errorf("rate_limit_login_attempts must be at least 1 when rate limiting is enabled")
	}
	return nil
}

// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Database connection timeouts
//
// AppConfig carries everything specific to the landing page CMS: where the
// site document lives, who may publish it, and where leads are forwarded.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: landingcms-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Maximum session cookie lifetime (default: 24h)

	// Rate limiting configuration
	RateLimitEnabled       bool          // Enable rate limiting for login attempts (default: true)
	RateLimitLoginAttempts int           // Max failed login attempts before lockout (default: 5)
	RateLimitLoginWindow   time.Duration // Time window for counting failed attempts (default: 15m)
	RateLimitLoginLockout  time.Duration // Lockout duration after exceeding limit (default: 15m)

	// CSRF protection configuration
	CSRFKey string // Secret key for CSRF token signing (32 bytes, must be strong in production)

	// API key for publishing tools (cmsctl, CI). Empty disables Bearer auth
	// and leaves the admin session as the only way to publish.
	APIKey string

	// Blob storage for published document revisions
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./data/blobs")
	StorageLocalURL  string // URL prefix for local files

	// S3/CloudFront configuration (only used if StorageType is "s3")
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageCFURL       string
	StorageCFKeyPairID string
	StorageCFKeyPath   string

	// Site content
	ContentMaxBytes      int64 // Request body ceiling for POST /api/cms (default: 50 MiB)
	ContentKeepRevisions int   // Published revisions kept by the prune job (default: 10)

	// Embedded image compression applied on publish
	ImageMaxWidth int // Longest edge after downscaling (default: 1200)
	ImageQuality  int // JPEG quality 1-100 (default: 60)

	// Origins allowed to call the public lead and pages endpoints. Empty
	// allows any origin.
	PublicOrigins []string

	// LeadSquared CRM
	LeadSquaredAccessKey string
	LeadSquaredSecretKey string
	LeadSquaredBaseURL   string

	// Handler deadlines for store operations
	TimeoutProbe   time.Duration // Health check probes (default: 5s)
	TimeoutRead    time.Duration // Loading content and revisions (default: 10s)
	TimeoutPublish time.Duration // Compressing and storing a publish (default: 30s)

	// Operator accounts
	UsersFile string // Path of the JSON users file (default: ./data/users.json)
}

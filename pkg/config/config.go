package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Sync     SyncConfig
	TPA      TPAConfig
	OTEL     OTELConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SyncConfig holds batch-run tuning knobs
type SyncConfig struct {
	// AdapterDelay is the pause between adapter invocations.
	AdapterDelay time.Duration
	// PageDelay is the pause between Care page fetches.
	PageDelay time.Duration
	// CareMaxPages caps the Care pagination loop.
	CareMaxPages int
	// AuditLogRoot is the base directory for per-TPA audit files.
	AuditLogRoot string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// TPAConfig holds per-TPA endpoints and credentials. Secrets are expected to be
// hydrated into the environment (Vault or .env) before Load runs.
type TPAConfig struct {
	Vidal      VidalConfig
	Ericson    EricsonConfig
	Mediassist MediassistConfig
	EWA        EWAConfig
	ICICI      ICICIConfig
	Care       CareConfig
	Safeway    SafewayConfig
	FHPL       FHPLConfig
}

// VidalConfig holds the Vidal hospital-search endpoint and basic auth pair.
type VidalConfig struct {
	HospitalURL string
	Username    string
	Password    string
	APIKey      string
}

// EricsonConfig holds the Ericson .asmx endpoint (no auth, form-encoded).
type EricsonConfig struct {
	HospitalURL string
}

// MediassistConfig holds the Mediassist provider-data endpoint and static token.
type MediassistConfig struct {
	HospitalURL string
	AuthToken   string
}

// EWAConfig holds the EWA login and hospital endpoints.
type EWAConfig struct {
	LoginURL    string
	HospitalURL string
	Username    string
	Password    string
}

// ICICIConfig holds the ICICI OAuth token grant and hospital-list endpoints.
type ICICIConfig struct {
	TokenURL     string
	HospitalURL  string
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	Scope        string
}

// CareConfig holds the Care partner token and hospital endpoints plus the
// fixed signing material their gateway mandates.
type CareConfig struct {
	TokenURL      string
	HospitalURL   string
	PartnerID     string
	SecurityKey   string
	Signature     string
	EncryptionKey string
	EncryptionIV  string
	PageSize      int
}

// SafewayConfig holds the Safeway endpoint and static auth header value.
type SafewayConfig struct {
	HospitalURL string
	AuthKey     string
}

// FHPLConfig holds the FHPL token and hospital endpoints.
type FHPLConfig struct {
	TokenURL    string
	HospitalURL string
	Username    string
	Password    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "zoomconnect"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Sync: SyncConfig{
			AdapterDelay: getEnvAsDuration("SYNC_ADAPTER_DELAY", 2*time.Second),
			PageDelay:    getEnvAsDuration("SYNC_PAGE_DELAY", 1*time.Second),
			CareMaxPages: getEnvAsInt("SYNC_CARE_MAX_PAGES", 500),
			AuditLogRoot: getEnv("SYNC_AUDIT_LOG_ROOT", "storage/logs"),
		},
		TPA: TPAConfig{
			Vidal: VidalConfig{
				HospitalURL: getEnv("VIDAL_HOSPITAL_URL", "https://api.vidalhealthtpa.com/hospital-search/network-hospitals"),
				Username:    getEnv("VIDAL_USERNAME", ""),
				Password:    getEnv("VIDAL_PASSWORD", ""),
				APIKey:      getEnv("VIDAL_API_KEY", ""),
			},
			Ericson: EricsonConfig{
				HospitalURL: getEnv("ERICSON_HOSPITAL_URL", "https://www.ericsontpa.com/WebServices/HospitalData.asmx/GetNetworkHospitals"),
			},
			Mediassist: MediassistConfig{
				HospitalURL: getEnv("MEDIASSIST_HOSPITAL_URL", "https://api.medibuddy.in/NetworkProvider/GetProviderData"),
				AuthToken:   getEnv("MEDIASSIST_AUTH_TOKEN", ""),
			},
			EWA: EWAConfig{
				LoginURL:    getEnv("EWA_LOGIN_URL", "https://portal.ewainsurance.com/api/auth/login"),
				HospitalURL: getEnv("EWA_HOSPITAL_URL", "https://portal.ewainsurance.com/api/network/hospitals"),
				Username:    getEnv("EWA_USERNAME", ""),
				Password:    getEnv("EWA_PASSWORD", ""),
			},
			ICICI: ICICIConfig{
				TokenURL:     getEnv("ICICI_TOKEN_URL", "https://api.icicilombard.com/security/connect/token"),
				HospitalURL:  getEnv("ICICI_HOSPITAL_URL", "https://api.icicilombard.com/health/networkhospitals"),
				Username:     getEnv("ICICI_USERNAME", ""),
				Password:     getEnv("ICICI_PASSWORD", ""),
				ClientID:     getEnv("ICICI_CLIENT_ID", ""),
				ClientSecret: getEnv("ICICI_CLIENT_SECRET", ""),
				Scope:        getEnv("ICICI_SCOPE", "esbnetworkhospitals"),
			},
			Care: CareConfig{
				TokenURL:      getEnv("CARE_TOKEN_URL", "https://api.careinsurance.com/partner/generateToken"),
				HospitalURL:   getEnv("CARE_HOSPITAL_URL", "https://api.careinsurance.com/partner/networkHospitalList"),
				PartnerID:     getEnv("CARE_PARTNER_ID", ""),
				SecurityKey:   getEnv("CARE_SECURITY_KEY", ""),
				Signature:     getEnv("CARE_SIGNATURE", ""),
				EncryptionKey: getEnv("CARE_ENCRYPTION_KEY", ""),
				EncryptionIV:  getEnv("CARE_ENCRYPTION_IV", ""),
				PageSize:      getEnvAsInt("CARE_PAGE_SIZE", 100),
			},
			Safeway: SafewayConfig{
				HospitalURL: getEnv("SAFEWAY_HOSPITAL_URL", "https://api.safewaytpa.in/network/HospitalList"),
				AuthKey:     getEnv("SAFEWAY_AUTH_KEY", ""),
			},
			FHPL: FHPLConfig{
				TokenURL:    getEnv("FHPL_TOKEN_URL", "https://api.fhpl.net/token"),
				HospitalURL: getEnv("FHPL_HOSPITAL_URL", "https://api.fhpl.net/api/NetworkHospitals"),
				Username:    getEnv("FHPL_USERNAME", ""),
				Password:    getEnv("FHPL_PASSWORD", ""),
			},
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "tpa-hospital-sync"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}

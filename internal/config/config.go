package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For splitting lists
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBDriver   string // Database driver: mysql, postgres or sqlite
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	SQLitePath string // SQLite file path when DBDriver is sqlite

	JWTSecret string        // JWT secret key
	JWTTTL    time.Duration // Token lifetime

	RedisAddr string // Redis server address, empty disables Redis
	RedisPass string // Redis password
	RedisDB   int    // Redis database number

	CartBackend      string        // Cart store: memory or redis
	CartTTL          time.Duration // Idle lifetime of a Redis cart
	CartRequireLogin bool          // Reject cart mutations from anonymous visitors

	RateLimitBackend string        // Login limiter: memory or redis
	LoginMaxAttempts int           // Failed logins allowed per window
	LoginWindow      time.Duration // Login limiter window

	UploadBucket  string // gocloud blob URL for product images
	MaxImageBytes int64  // Largest accepted image upload

	KafkaBrokers    []string // Kafka brokers, empty disables Kafka
	KafkaOrderTopic string   // Topic receiving order-placed events

	AdminPassword string // Password for the seeded admin account
	BcryptCost    int    // bcrypt work factor

	LogLevel string // logrus level name
	IsProd   bool   // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),        // Application port
		DBDriver:   getEnv("DB_DRIVER", "mysql"),      // Database driver
		DBUser:     os.Getenv("DB_USER"),              // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),          // Database password
		DBHost:     getEnv("DB_HOST", "localhost"),    // Database host
		DBPort:     os.Getenv("DB_PORT"),              // Database port
		DBName:     getEnv("DB_NAME", "eshop"),        // Database name
		SQLitePath: getEnv("SQLITE_PATH", "eshop.db"), // SQLite file

		JWTSecret: os.Getenv("JWT_SECRET"),                 // JWT secret key
		JWTTTL:    getEnvDuration("JWT_TTL", 24*time.Hour), // Token lifetime

		RedisAddr: os.Getenv("REDIS_ADDR"),  // Redis server address
		RedisPass: os.Getenv("REDIS_PASS"),  // Redis password
		RedisDB:   getEnvInt("REDIS_DB", 0), // Redis database number

		CartBackend:      getEnv("CART_BACKEND", "memory"),           // Cart store
		CartTTL:          getEnvDuration("CART_TTL", 7*24*time.Hour), // Cart idle lifetime
		CartRequireLogin: getEnvBool("CART_REQUIRE_LOGIN", true),     // Login gating

		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", "memory"),         // Limiter backend
		LoginMaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 5),             // Attempts per window
		LoginWindow:      getEnvDuration("LOGIN_WINDOW", 15*time.Minute), // Window length

		UploadBucket:  getEnv("UPLOAD_BUCKET", "file:///tmp/eshop-uploads?create_dir=true"), // Image bucket
		MaxImageBytes: int64(getEnvInt("MAX_IMAGE_BYTES", 5<<20)),                           // 5 MiB default

		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),              // Kafka brokers
		KafkaOrderTopic: getEnv("KAFKA_ORDER_TOPIC", "eshop.orders.placed"), // Order topic

		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"), // Seeded admin password
		BcryptCost:    getEnvInt("BCRYPT_COST", 10),         // bcrypt cost

		LogLevel: getEnv("LOG_LEVEL", "info"),    // Log level
		IsProd:   os.Getenv("IS_PROD") == "true", // Is production environment
	}
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		port := c.DBPort // Default postgres port
		if port == "" {
			port = "5432"
		}
		return "host=" + c.DBHost + " user=" + c.DBUser + " password=" + c.DBPassword +
			" dbname=" + c.DBName + " port=" + port + " sslmode=disable TimeZone=UTC"
	case "sqlite":
		return c.SQLitePath // File path or file: URI
	default:
		port := c.DBPort // Default mysql port
		if port == "" {
			port = "3306"
		}
		return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true"
	}
}

// getEnv returns the variable or def when it is unset
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt parses an integer variable, falling back to def
func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// getEnvBool parses a boolean variable, falling back to def
func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration accepts Go durations ("15m") or plain seconds ("900")
func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return def
}

// splitList splits a comma separated list, dropping empty entries
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"LOGIN_MAX_ATTEMPTS", "LOGIN_WINDOW", "CART_REQUIRE_LOGIN", "KAFKA_BROKERS", "DB_DRIVER"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfig()

	assert.Equal(t, 5, cfg.LoginMaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.LoginWindow)
	assert.True(t, cfg.CartRequireLogin)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "mysql", cfg.DBDriver)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("LOGIN_WINDOW", "900")
	t.Setenv("CART_TTL", "2h")
	t.Setenv("CART_REQUIRE_LOGIN", "false")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	cfg := LoadConfig()

	assert.Equal(t, 900*time.Second, cfg.LoginWindow)
	assert.Equal(t, 2*time.Hour, cfg.CartTTL)
	assert.False(t, cfg.CartRequireLogin)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "h", DBName: "shop"}
	assert.Equal(t, "u:p@tcp(h:3306)/shop?parseTime=true", cfg.DSN())

	cfg.DBDriver = "postgres"
	assert.Contains(t, cfg.DSN(), "port=5432")

	cfg.DBDriver = "sqlite"
	cfg.SQLitePath = "shop.db"
	assert.Equal(t, "shop.db", cfg.DSN())
}

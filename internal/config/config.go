package config

import "os"

const (
	DefaultHTTPAddr = ":8080"
	DefaultMySQLDSN = "root:root@tcp(localhost:3306)/ims?parseTime=true"
)

// Config holds environment-specific configuration.
type Config struct {
	HTTPAddr string
	MySQLDSN string

	// RedisAddr is optional; when empty, purchase request deduplication is
	// disabled.
	RedisAddr string
}

// Load reads configuration from environment variables, falling back to
// development defaults.
func Load() Config {
	cfg := Config{
		HTTPAddr:  DefaultHTTPAddr,
		MySQLDSN:  DefaultMySQLDSN,
		RedisAddr: os.Getenv("REDIS_ADDR"),
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.MySQLDSN = v
	}
	return cfg
}

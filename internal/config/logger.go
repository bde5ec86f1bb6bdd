package config

import (
	"os" // Log output

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// SetupLogger configures the global logrus logger: JSON in production,
// timestamped text otherwise, at LOG_LEVEL
func SetupLogger(cfg *Config) {
	logrus.SetOutput(os.Stdout) // Container friendly output
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{}) // Machine readable logs
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true}) // Human readable logs
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel // Unknown level names fall back to info
	}
	logrus.SetLevel(level)
}

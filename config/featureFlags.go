package config

import (
	"os"
	"strings"
)

// StrictSubmitOnly forces strict-mode validation on every draft write, not just on
// submit. Useful for batch imports where permissive coercion would hide bad data.
//
// Set via env:
// - STRICT_SUBMIT_ONLY=true
func StrictSubmitOnly() bool {
	return boolFromEnv("STRICT_SUBMIT_ONLY")
}

// AutoMigrateEnabled gates gorm.AutoMigrate on startup.
// AutoMigrate can run DDL that blocks tables; disable it and run migrations as a
// separate job when the schema is already in place.
//
// Set via env:
// - DB_AUTOMIGRATE=true
func AutoMigrateEnabled() bool {
	return boolFromEnv("DB_AUTOMIGRATE")
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

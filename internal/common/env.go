package common

import (
	"os"
	"strconv"
)

// GetEnvOrDefault reads an environment variable with a fallback.
func GetEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetEnvOrDefaultInt reads an integer environment variable with a fallback.
// Unparsable values fall back too.
func GetEnvOrDefaultInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// GetEnvOrDefaultInt64 reads a 64-bit integer environment variable with a
// fallback.
func GetEnvOrDefaultInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// GetEnvOrDefaultBool reads a boolean environment variable with a fallback.
func GetEnvOrDefaultBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

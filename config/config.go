package config

import "os"

// GetEnv reads an environment variable, returning fallback when it is unset.
// An empty value counts as set.
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

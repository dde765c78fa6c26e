package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort     string
	HTTPSPort    string
	Domain       string
	DatabasePath string
	LogLevel     string

	// AdminPassword enables bearer-token protection of mutating endpoints
	// when set. Empty means the API is open.
	AdminPassword string
	JWTSecret     string

	// Backend-only mode fields
	HTTPOnly    bool
	FrontendURI string
}

// Load reads configuration from the environment, with an optional .env file
// for development. Command-line flags override the mode fields.
func Load(httpOnly *bool) *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		HTTPSPort:     getEnv("HTTPS_PORT", "8443"),
		Domain:        getEnv("DOMAIN", "localhost"),
		DatabasePath:  getEnv("DATABASE_PATH", "guestlist.db"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		FrontendURI:   os.Getenv("FRONTEND_URI"),
	}

	if httpOnly != nil {
		cfg.HTTPOnly = *httpOnly
	}

	if cfg.AdminPassword != "" {
		cfg.JWTSecret = loadOrGenerateJWTSecret()
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func generateRandomSecret() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return base64.URLEncoding.EncodeToString(bytes)
}

func loadOrGenerateJWTSecret() string {
	// Environment variable has the highest priority.
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return secret
	}

	keysDir := getKeysDirectory()
	secretFile := filepath.Join(keysDir, "jwt-secret.key")

	if secretData, err := os.ReadFile(secretFile); err == nil {
		if secret := strings.TrimSpace(string(secretData)); secret != "" {
			return secret
		}
	}

	secret := generateRandomSecret()

	// Persist so tokens survive restarts; a failure here only means the
	// secret is regenerated next time.
	if err := os.MkdirAll(keysDir, 0700); err == nil {
		if err := os.WriteFile(secretFile, []byte(secret), 0600); err != nil {
			fmt.Printf("Warning: Failed to save JWT secret to disk: %v\n", err)
		}
	}

	return secret
}

func getKeysDirectory() string {
	execPath, err := os.Executable()
	if err != nil {
		return "keys"
	}
	return filepath.Join(filepath.Dir(execPath), "keys")
}

// GetCertsDirectory returns where autocert stores certificates, next to the
// executable like the keys directory.
func GetCertsDirectory() string {
	execPath, err := os.Executable()
	if err != nil {
		return "certs"
	}
	return filepath.Join(filepath.Dir(execPath), "certs")
}

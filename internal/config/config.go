// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	SecretKey       []byte // 32-byte AES-256 key for token encryption.
	JWTSecret       []byte // HMAC key for signing access tokens.
	JWTTTL          time.Duration
	ValidateTimeout time.Duration
	ListenAddr      string
	DBPath          string
	OllamaURL       string
	OllamaModel     string
}

// Load reads configuration from environment variables and returns a validated
// Config. LABCHAT_SECRET_KEY and LABCHAT_JWT_SECRET are required; a missing
// or malformed secret key is a startup failure, never a per-request error.
// Optional variables with defaults: LABCHAT_LISTEN_ADDR (127.0.0.1:8080),
// LABCHAT_DB_PATH (labchat.db), LABCHAT_VALIDATE_TIMEOUT (10s),
// LABCHAT_JWT_TTL (24h), LABCHAT_OLLAMA_URL (http://localhost:11434),
// LABCHAT_OLLAMA_MODEL (llama3.2).
func Load() (*Config, error) {
	rawKey := os.Getenv("LABCHAT_SECRET_KEY")
	if rawKey == "" {
		return nil, fmt.Errorf("LABCHAT_SECRET_KEY is required")
	}
	secretKey, err := decodeKey(rawKey)
	if err != nil {
		return nil, fmt.Errorf("LABCHAT_SECRET_KEY is invalid: %w", err)
	}

	jwtSecret := os.Getenv("LABCHAT_JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("LABCHAT_JWT_SECRET is required")
	}

	jwtTTL := 24 * time.Hour
	if v, ok := os.LookupEnv("LABCHAT_JWT_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("LABCHAT_JWT_TTL has invalid duration %q: %w", v, err)
		}
		jwtTTL = parsed
	}

	validateTimeout := 10 * time.Second
	if v, ok := os.LookupEnv("LABCHAT_VALIDATE_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("LABCHAT_VALIDATE_TIMEOUT has invalid duration %q: %w", v, err)
		}
		validateTimeout = parsed
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("LABCHAT_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "labchat.db"
	if v, ok := os.LookupEnv("LABCHAT_DB_PATH"); ok {
		dbPath = v
	}

	ollamaURL := "http://localhost:11434"
	if v, ok := os.LookupEnv("LABCHAT_OLLAMA_URL"); ok {
		ollamaURL = v
	}

	ollamaModel := "llama3.2"
	if v, ok := os.LookupEnv("LABCHAT_OLLAMA_MODEL"); ok {
		ollamaModel = v
	}

	return &Config{
		SecretKey:       secretKey,
		JWTSecret:       []byte(jwtSecret),
		JWTTTL:          jwtTTL,
		ValidateTimeout: validateTimeout,
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
		OllamaURL:       ollamaURL,
		OllamaModel:     ollamaModel,
	}, nil
}

// decodeKey accepts a 32-byte key encoded as standard base64, URL-safe
// base64, or hex. Accepting multiple encodings keeps key generation tooling
// (openssl rand -base64 32, -hex 32) interchangeable.
func decodeKey(raw string) ([]byte, error) {
	decoders := []func(string) ([]byte, error){
		base64.StdEncoding.DecodeString,
		base64.URLEncoding.DecodeString,
		hex.DecodeString,
	}

	for _, decode := range decoders {
		key, err := decode(raw)
		if err == nil && len(key) == 32 {
			return key, nil
		}
	}

	return nil, fmt.Errorf("must decode (base64 or hex) to exactly 32 bytes")
}

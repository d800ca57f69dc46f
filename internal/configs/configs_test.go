package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every key LoadConfig reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"ENVIRONMENT", "PORT", "POW_DIFFICULTY", "ALLOWED_ORIGINS", "JWT_SECRET",
		"STORE_DRIVER", "DATABASE_URL",
		"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
		"MESSAGE_MAX_LENGTH", "MESSAGE_MAX_ATTACHMENTS", "TYPING_TTL_SECONDS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Environment != "development" || !cfg.IsDevelopment() {
		t.Fatalf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.Port != 8080 {
		t.Fatalf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.StoreDriver != StoreDriverPostgres || cfg.DatabaseDSN == "" {
		t.Fatalf("store = %q %q, want postgres with a default DSN", cfg.StoreDriver, cfg.DatabaseDSN)
	}
	if cfg.MessageMaxLength != 5000 || cfg.MessageMaxAttachments != 5 {
		t.Fatalf("limits = %d/%d, want 5000/5", cfg.MessageMaxLength, cfg.MessageMaxAttachments)
	}
	if cfg.TypingTTL != 10*time.Second {
		t.Fatalf("TypingTTL = %v, want 10s", cfg.TypingTTL)
	}
	if cfg.S3BucketName != "" || len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("unexpected optional settings: %+v", cfg)
	}
	if cfg.JWTSecret == "" {
		t.Fatal("JWTSecret is empty in development")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("TYPING_TTL_SECONDS", "0")
	t.Setenv("MESSAGE_MAX_LENGTH", "200")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Fatalf("Port = %d, want 9090", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.StoreDriver != StoreDriverMemory {
		t.Fatalf("StoreDriver = %q, want memory", cfg.StoreDriver)
	}
	if cfg.TypingTTL != 0 {
		t.Fatalf("TypingTTL = %v, want 0", cfg.TypingTTL)
	}
	if cfg.MessageMaxLength != 200 {
		t.Fatalf("MessageMaxLength = %d, want 200", cfg.MessageMaxLength)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"port not a number":       {"PORT": "http"},
		"privileged port":         {"PORT": "80"},
		"unknown driver":          {"STORE_DRIVER": "mongo"},
		"negative typing ttl":     {"TYPING_TTL_SECONDS": "-1"},
		"zero attachments":        {"MESSAGE_MAX_ATTACHMENTS": "0"},
		"bucket without creds":    {"S3_BUCKET_NAME": "files", "S3_ENDPOINT": "http://minio:9000"},
		"bucket without endpoint": {"S3_BUCKET_NAME": "files"},
		"production no secret":    {"ENVIRONMENT": "production", "DATABASE_URL": "postgres://x"},
		"production memory":       {"ENVIRONMENT": "production", "JWT_SECRET": "s", "STORE_DRIVER": "memory"},
		"production no database":  {"ENVIRONMENT": "production", "JWT_SECRET": "s"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}

			if _, err := LoadConfig(); err == nil {
				t.Fatalf("LoadConfig() error = nil, want an error")
			}
		})
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9191")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "PORT=7000\nSTORE_DRIVER=memory\nS3_BUCKET_NAME=files\nS3_ENDPOINT=http://minio:9000\nS3_ACCESS_KEY_ID=k\nS3_SECRET_ACCESS_KEY=s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// godotenv only fills keys that are unset, and clearEnv sets them to "".
	for _, key := range []string{"STORE_DRIVER", "S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY"} {
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig(%q) error = %v", path, err)
	}
	if cfg.Port != 9191 {
		t.Fatalf("Port = %d, want process value 9191", cfg.Port)
	}
	if cfg.StoreDriver != StoreDriverMemory || cfg.S3BucketName != "files" {
		t.Fatalf("file values not applied: %+v", cfg)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("LoadConfig(missing file) error = nil")
	}
}

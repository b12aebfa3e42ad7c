package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret")
	missing := filepath.Join(t.TempDir(), "missing.env")

	cfg, err := Load(missing)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Port)
	}
	if cfg.DBDriver != DriverPostgres {
		t.Fatalf("driver = %q, want postgres", cfg.DBDriver)
	}
	if got := cfg.AccessTokenTTL(); got != time.Hour {
		t.Fatalf("token ttl = %v, want 1h", got)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("cors origins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", cfg.Location())
	}
}

func TestLoadRequiresSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	os.Unsetenv("SECRET_KEY")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error without SECRET_KEY")
	}
}

func TestLoadReadsDotenvFile(t *testing.T) {
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("DB_DRIVER", "")
	os.Unsetenv("DB_DRIVER")
	t.Setenv("SQLITE_PATH", "")
	os.Unsetenv("SQLITE_PATH")

	path := filepath.Join(t.TempDir(), ".env")
	content := "DB_DRIVER=sqlite\nSQLITE_PATH=/tmp/dotenv.db\nSECRET_KEY=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("DB_DRIVER")
		os.Unsetenv("SQLITE_PATH")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBDriver != DriverSQLite {
		t.Fatalf("driver = %q, want sqlite", cfg.DBDriver)
	}
	if cfg.DSN() != "/tmp/dotenv.db" {
		t.Fatalf("dsn = %q", cfg.DSN())
	}
	if cfg.SecretKey != "from-env" {
		t.Fatalf("secret = %q, process env should win", cfg.SecretKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid postgres", mutate: func(c *Config) {}},
		{name: "pgx upper case", mutate: func(c *Config) { c.DBDriver = " PGX " }},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, wantErr: true},
		{name: "sqlite without path", mutate: func(c *Config) { c.DBDriver = "sqlite"; c.SQLitePath = " " }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.BusinessTimezone = "Nowhere/City" }, wantErr: true},
		{name: "zero expiry", mutate: func(c *Config) { c.AccessTokenExpireMinutes = 0 }, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				DBDriver:                 "postgres",
				SQLitePath:               "ims.db",
				SecretKey:                "secret",
				AccessTokenExpireMinutes: 60,
				BusinessTimezone:         "UTC",
				CORSAllowedOrigins:       []string{" http://a ", ""},
			}
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestDSNBuildsPostgresKeywords(t *testing.T) {
	cfg := &Config{
		DBDriver:   DriverPostgres,
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "u",
		DBPassword: "p",
		DBName:     "n",
		DBSSLMode:  "require",
	}
	want := "host=db port=5433 user=u password=p dbname=n sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}

	cfg.DatabaseURL = "postgres://x"
	if got := cfg.DSN(); got != "postgres://x" {
		t.Fatalf("dsn = %q, want DATABASE_URL", got)
	}
}

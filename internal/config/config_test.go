package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if c.Server.Port != 8080 || c.Widget.GreetingDelay != 2*time.Second || c.Widget.GreetingTTL != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "server:\n  port: 9090\nwidget:\n  greeting_delay: 3s\nbackend:\n  base_url: http://file/api\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOSTEL_BACKEND_BASE_URL", "http://env/api")
	t.Setenv("HOSTEL_AUTH_JWT_SECRET", "s3cret")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if c.Server.Port != 9090 || c.Widget.GreetingDelay != 3*time.Second {
		t.Fatalf("file values not applied: %+v", c.Server)
	}
	if c.Backend.BaseURL != "http://env/api" || c.Auth.JWTSecret != "s3cret" {
		t.Fatalf("env overrides not applied: %+v %+v", c.Backend, c.Auth)
	}
}

func TestLoadJWTSecretFallback(t *testing.T) {
	t.Setenv("JWT_SECRET", "shared")
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Auth.JWTSecret != "shared" {
		t.Fatalf("JWTSecret = %q", c.Auth.JWTSecret)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("HOSTEL_SERVER_PORT", "70000")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error")
	}
}

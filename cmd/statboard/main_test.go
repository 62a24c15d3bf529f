package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/foxzi/statboard/internal/access"
	"github.com/foxzi/statboard/internal/credential"
	"github.com/foxzi/statboard/internal/dashboard"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestResolveColumns(t *testing.T) {
	cols, err := resolveColumns([]string{"date", " country", "impressions"})
	if err != nil {
		t.Fatalf("resolveColumns() error = %v", err)
	}
	if len(cols) != 3 || cols[1].Key != "country" {
		t.Errorf("unexpected columns: %+v", cols)
	}

	if _, err := resolveColumns([]string{"budget"}); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestViewError(t *testing.T) {
	err := fmt.Errorf("load: %w", &dashboard.Error{Message: "Failed to load pending users", Err: errors.New("dial tcp")})
	if got := viewError(err).Error(); got != "Failed to load pending users" {
		t.Errorf("viewError() = %q", got)
	}

	plain := errors.New("boom")
	if viewError(plain) != plain {
		t.Error("other errors should pass through")
	}
}

// writeTestConfig points the CLI at a fake backend and a temporary credential file
func writeTestConfig(t *testing.T, handler http.Handler) (configPath, credPath string) {
	t.Helper()

	api := httptest.NewServer(handler)
	t.Cleanup(api.Close)

	dir := t.TempDir()
	credPath = filepath.Join(dir, "state", "credentials.db")
	configPath = filepath.Join(dir, "config.yaml")

	content := fmt.Sprintf("backend:\n  base_url: %q\ncredentials:\n  path: %q\nlogging:\n  level: error\n", api.URL, credPath)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return configPath, credPath
}

func memberBackend() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "member-token",
			"user":         map[string]string{"id": "2", "email": "user@example.com"},
		})
	})
	mux.HandleFunc("GET /users/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer member-token" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"message": "Unauthorized", "statusCode": 401})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "2", "email": "user@example.com", "role": "user", "status": "approved"})
	})
	return mux
}

func storedToken(t *testing.T, path string) (string, bool) {
	t.Helper()
	store, err := credential.Open(path)
	if err != nil {
		t.Fatalf("credential.Open() error = %v", err)
	}
	defer store.Close()

	token, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return token, ok
}

func TestSignInAndOut(t *testing.T) {
	configPath, credPath := writeTestConfig(t, memberBackend())

	authEmail = "user@example.com"
	authPassword = "secret"
	t.Cleanup(func() {
		authEmail = ""
		authPassword = ""
	})

	rootCmd.SetArgs([]string{"signin", "--config", configPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("signin error = %v", err)
	}
	if token, ok := storedToken(t, credPath); !ok || token != "member-token" {
		t.Fatalf("stored token = %q, %v", token, ok)
	}

	rootCmd.SetArgs([]string{"whoami", "--config", configPath})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("whoami error = %v", err)
	}

	rootCmd.SetArgs([]string{"users", "pending", "--config", configPath})
	if err := rootCmd.Execute(); !errors.Is(err, access.ErrAdminRequired) {
		t.Errorf("users pending error = %v, want ErrAdminRequired", err)
	}

	rootCmd.SetArgs([]string{"signout", "--config", configPath})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("signout error = %v", err)
	}
	if _, ok := storedToken(t, credPath); ok {
		t.Error("token should be cleared after signout")
	}

	rootCmd.SetArgs([]string{"signout", "--config", configPath})
	if err := rootCmd.Execute(); err != nil {
		t.Errorf("second signout error = %v", err)
	}

	rootCmd.SetArgs([]string{"stats", "list", "--config", configPath})
	if err := rootCmd.Execute(); !errors.Is(err, access.ErrSignInRequired) {
		t.Errorf("stats list error = %v, want ErrSignInRequired", err)
	}
}

package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bobmcallan/stockwatch/internal/clients/eodhd"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "stockwatch.toml")
	content := `
[storage]
data_path = "` + filepath.ToSlash(dir) + `"

[clients.eodhd]
api_key = "test-key"

[logging]
level = "error"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestNewApp_InitializesAllServices verifies that NewApp creates an App with
// all services and clients initialized and non-nil.
func TestNewApp_InitializesAllServices(t *testing.T) {
	a, err := NewApp(writeTestConfig(t))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	if a.Config == nil {
		t.Error("Config is nil")
	}
	if a.Logger == nil {
		t.Error("Logger is nil")
	}
	if a.Metrics == nil {
		t.Error("Metrics is nil")
	}
	if a.Storage == nil {
		t.Error("Storage is nil")
	}
	if _, ok := a.Provider.(*eodhd.Client); !ok {
		t.Errorf("Provider = %T, want *eodhd.Client", a.Provider)
	}
	if a.WatchlistService == nil {
		t.Error("WatchlistService is nil")
	}
	if a.Enricher == nil {
		t.Error("Enricher is nil")
	}
	if a.SearchService == nil {
		t.Error("SearchService is nil")
	}
	if a.SnapshotService == nil {
		t.Error("SnapshotService is nil")
	}
	if a.StartupTime.IsZero() {
		t.Error("StartupTime is zero")
	}
	if a.Config.Clients.EODHD.APIKey != "test-key" {
		t.Errorf("APIKey = %q, want test-key", a.Config.Clients.EODHD.APIKey)
	}
}

func TestResolveConfigPath_EnvOverride(t *testing.T) {
	t.Setenv("STOCKWATCH_CONFIG", "/etc/stockwatch/custom.toml")

	if got := ResolveConfigPath(""); got != "/etc/stockwatch/custom.toml" {
		t.Errorf("ResolveConfigPath() = %q", got)
	}
	if got := ResolveConfigPath("explicit.toml"); got != "explicit.toml" {
		t.Errorf("explicit path should win, got %q", got)
	}
}

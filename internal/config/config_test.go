package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `{
		"api_key": "secret",
		"scheme": "https",
		"host": "api.example.net",
		"port": 8443,
		"version": "v2",
		"proxy_host": "proxy.internal",
		"proxy_port": 3128,
		"proxy_username": "scanner",
		"proxy_password": "hunter2",
		"proxy_headers": {"X-Team": "secops"},
		"total": 120,
		"connect": 10,
		"header": 30
	}`)

	cfg := LoadFile(path)

	if cfg.APIKey != "secret" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.Host != "api.example.net" || cfg.Port != 8443 {
		t.Errorf("endpoint = %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.ProxyHost != "proxy.internal" || cfg.ProxyPort != 3128 {
		t.Errorf("proxy = %s:%d", cfg.ProxyHost, cfg.ProxyPort)
	}
	if cfg.ProxyUsername != "scanner" || cfg.ProxyPassword != "hunter2" {
		t.Error("proxy credentials not loaded")
	}
	if cfg.ProxyHeaders["X-Team"] != "secops" {
		t.Errorf("proxy headers = %v", cfg.ProxyHeaders)
	}
	if cfg.TimeoutTotal != 120 || cfg.TimeoutConnect != 10 || cfg.TimeoutHeader != 30 {
		t.Errorf("timeouts = %d/%d/%d", cfg.TimeoutTotal, cfg.TimeoutConnect, cfg.TimeoutHeader)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	cfg := LoadFile(filepath.Join(t.TempDir(), FileName))
	if !reflect.DeepEqual(cfg, Config{}) {
		t.Errorf("missing file: cfg = %+v, want zero value", cfg)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := writeFile(t, `{"api_key": `)
	cfg := LoadFile(path)
	if !reflect.DeepEqual(cfg, Config{}) {
		t.Errorf("malformed file: cfg = %+v, want zero value", cfg)
	}
}

func TestLoadFile_PartialFieldsKeepZeroValues(t *testing.T) {
	path := writeFile(t, `{"api_key": "only-key"}`)
	cfg := LoadFile(path)
	if cfg.APIKey != "only-key" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.Host != "" || cfg.Port != 0 || cfg.TimeoutTotal != 0 {
		t.Errorf("partial file set unexpected fields: %+v", cfg)
	}
}

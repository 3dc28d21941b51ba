package config

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.DefaultVendor != "alrahuz" {
		t.Errorf("DefaultVendor = %q, want alrahuz", cfg.DefaultVendor)
	}
	if cfg.PaystackBaseURL != "https://api.paystack.co" {
		t.Errorf("PaystackBaseURL = %q", cfg.PaystackBaseURL)
	}
	if cfg.CodeTTLMinutes != 10 {
		t.Errorf("CodeTTLMinutes = %d, want 10", cfg.CodeTTLMinutes)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("DEFAULT_VENDOR", "smeplug")
	t.Setenv("CODE_TTL_MINUTES", "5")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DefaultVendor != "smeplug" {
		t.Errorf("DefaultVendor = %q, want smeplug", cfg.DefaultVendor)
	}
	if cfg.CodeTTLMinutes != 5 {
		t.Errorf("CodeTTLMinutes = %d, want 5", cfg.CodeTTLMinutes)
	}
}

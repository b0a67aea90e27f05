package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Store:   StoreConfig{Driver: StoreDriverMemory},
		Link:    LinkConfig{ExpirationPolicy: ExpirationTTL, TTL: 24 * time.Hour},
		Credits: CreditsConfig{SignupBonus: 1},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid ttl", mutate: func(*Config) {}},
		{name: "valid one shot", mutate: func(c *Config) {
			c.Link = LinkConfig{ExpirationPolicy: ExpirationOneShot}
		}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mongo" }, wantErr: "store driver"},
		{name: "ttl without duration", mutate: func(c *Config) { c.Link.TTL = 0 }, wantErr: "link.ttl"},
		{name: "unknown policy", mutate: func(c *Config) { c.Link.ExpirationPolicy = "forever" }, wantErr: "expiration policy"},
		{name: "negative bonus", mutate: func(c *Config) { c.Credits.SignupBonus = -1 }, wantErr: "signup_bonus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LINK_EXPIRATION_POLICY", ExpirationOneShot)
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("PG_PORT", "6543")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Link.ExpirationPolicy != ExpirationOneShot {
		t.Fatalf("expected one_shot policy, got %q", cfg.Link.ExpirationPolicy)
	}
	if cfg.Payment.KeyID != "rzp_test_key" {
		t.Fatalf("expected key id from env, got %q", cfg.Payment.KeyID)
	}
	if cfg.Postgres.Port != 6543 {
		t.Fatalf("expected postgres port 6543, got %d", cfg.Postgres.Port)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected default shutdown timeout, got %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Payment.Currency != "INR" {
		t.Fatalf("expected INR currency, got %q", cfg.Payment.Currency)
	}
}

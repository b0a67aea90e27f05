package postgres

import (
	"testing"
	"time"

	"github.com/sifan077/graby/config"
)

func TestConnString_Defaults(t *testing.T) {
	got := ConnString(config.PostgresConfig{User: "graby", Database: "graby"})
	want := "postgres://graby@localhost:5432/graby?sslmode=disable"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestConnString_EscapesCredentials(t *testing.T) {
	got := ConnString(config.PostgresConfig{
		Host:     "db",
		Port:     6543,
		User:     "app user",
		Password: "pa ss/word",
		Database: "clicks",
		SSLMode:  "require",
	})
	want := "postgres://app%20user:pa%20ss%2Fword@db:6543/clicks?sslmode=require"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestPoolConfig_AppliesLimits(t *testing.T) {
	poolCfg, err := PoolConfig(config.PostgresConfig{
		User:            "graby",
		Database:        "graby",
		MaxConns:        12,
		MaxConnLifetime: 30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("PoolConfig error: %v", err)
	}
	if poolCfg.MaxConns != 12 {
		t.Fatalf("expected MaxConns 12, got %d", poolCfg.MaxConns)
	}
	if poolCfg.MaxConnLifetime != 30*time.Minute {
		t.Fatalf("expected 30m lifetime, got %s", poolCfg.MaxConnLifetime)
	}
	if got := poolCfg.ConnConfig.RuntimeParams["application_name"]; got != "graby" {
		t.Fatalf("expected application_name graby, got %q", got)
	}
}

package config

import "testing"

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := &Config{Port: 8080, MaxClients: 16, JsonrpcCacheExpirationTime: 60}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestValidateRejectsOutOfRangePort(t *testing.T) {
	cfg := &Config{Port: 0, MaxClients: 16, JsonrpcCacheExpirationTime: 60}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for Port=0")
	}
	cfg.Port = 65536
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for Port=65536")
	}
}

func TestValidateRejectsOutOfRangeMaxClients(t *testing.T) {
	cfg := &Config{Port: 8080, MaxClients: 0, JsonrpcCacheExpirationTime: 60}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for MaxClients=0")
	}
}

func TestValidateRejectsOutOfRangeExpiration(t *testing.T) {
	cfg := &Config{Port: 8080, MaxClients: 16, JsonrpcCacheExpirationTime: 3601}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for expiration > 3600")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxClients != 16 {
		t.Fatalf("expected default MaxClients=16, got %d", cfg.MaxClients)
	}
	if cfg.JsonrpcCacheExpirationTime != 60 {
		t.Fatalf("expected default expiration=60, got %d", cfg.JsonrpcCacheExpirationTime)
	}
}

package config

import (
	"strings"
	"testing"
)

func TestLoad_AppliesDefaultsWithNoEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DAYS_IN_YEAR", "")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.Port != "8080" {
		t.Errorf("Port = %q, want default 8080", s.Port)
	}
	if s.DaysInYear != 365 {
		t.Errorf("DaysInYear = %d, want default 365", s.DaysInYear)
	}
}

func TestLoad_HonorsEnvOverrides(t *testing.T) {
	t.Setenv("CB_FAIL_THRESHOLD", "9")
	t.Setenv("LIMIT_STANDARD", "123")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if s.CBFailureThreshold != 9 {
		t.Errorf("CBFailureThreshold = %d, want 9", s.CBFailureThreshold)
	}
	if s.LimitStandard != 123 {
		t.Errorf("LimitStandard = %d, want 123", s.LimitStandard)
	}
}

func TestDBDSN_IncludesAllFields(t *testing.T) {
	s := &Settings{DBHost: "h", DBPort: "5432", DBUser: "u", DBName: "d", DBPassword: "p", DBSSLMode: "disable"}
	dsn := s.DBDSN()
	for _, want := range []string{"host=h", "port=5432", "user=u", "dbname=d", "password=p", "sslmode=disable"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
}

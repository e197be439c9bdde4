package config

import "testing"

func TestNewManager_NilDBServesDefaultsForever(t *testing.T) {
	m := NewManager(nil, "locate-pricing-engine")
	defer m.Close()

	if _, ok := m.Get("anything"); ok {
		t.Error("expected no cached value with a nil backing store")
	}
	if got := m.GetString("k", "fallback"); got != "fallback" {
		t.Errorf("GetString = %q, want fallback", got)
	}
	if got := m.GetInt("k", 42); got != 42 {
		t.Errorf("GetInt = %d, want 42", got)
	}
	if got := m.GetFloat("k", 1.5); got != 1.5 {
		t.Errorf("GetFloat = %f, want 1.5", got)
	}
}

func TestManager_Reload_NilDBIsNoop(t *testing.T) {
	m := NewManager(nil, "locate-pricing-engine")
	defer m.Close()

	if err := m.Reload(); err != nil {
		t.Errorf("Reload on nil-backed manager returned error: %v", err)
	}
}

func TestManager_Set_NilDBFails(t *testing.T) {
	m := NewManager(nil, "locate-pricing-engine")
	defer m.Close()

	if err := m.Set("cb_fail_threshold_borrow_rate", 7, "tester", "unit test"); err == nil {
		t.Error("expected Set to fail without a backing store")
	}
}

func TestManager_Close_Idempotent(t *testing.T) {
	m := NewManager(nil, "locate-pricing-engine")
	m.Close()
	m.Close() // must not panic on double close
}

package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
)

// PricingConfigEntry is a single hot-reloadable tunable for the pricing
// engine (circuit breaker thresholds, rate limit tiers) stored externally
// so operators can adjust them without a restart.
type PricingConfigEntry struct {
	ID          int             `json:"id" gorm:"primaryKey"`
	ServiceName string          `json:"service_name" gorm:"not null;index"`
	ConfigKey   string          `json:"config_key" gorm:"not null"`
	ConfigValue json.RawMessage `json:"config_value" gorm:"type:jsonb;not null"`
	Description string          `json:"description"`
	UpdatedBy   string          `json:"updated_by"`
	Version     int             `json:"version" gorm:"default:1"`
	LastUpdated time.Time       `json:"last_updated"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (PricingConfigEntry) TableName() string {
	return "pricing_config"
}

// PricingConfigHistory tracks changes to PricingConfigEntry rows.
type PricingConfigHistory struct {
	ID           int             `json:"id" gorm:"primaryKey"`
	ServiceName  string          `json:"service_name"`
	ConfigKey    string          `json:"config_key"`
	OldValue     json.RawMessage `json:"old_value" gorm:"type:jsonb"`
	NewValue     json.RawMessage `json:"new_value" gorm:"type:jsonb"`
	ChangedBy    string          `json:"changed_by"`
	ChangeReason string          `json:"change_reason"`
	ChangedAt    time.Time       `json:"changed_at"`
}

func (PricingConfigHistory) TableName() string {
	return "pricing_config_history"
}

// Manager holds the hot-reloadable subset of Settings that operators may
// adjust at runtime (thresholds and limits, not secrets or endpoints). It is
// read-mostly: the read path (Get*) takes an RWMutex read lock only, never
// blocking on the reload goroutine except during the brief cache swap.
type Manager struct {
	db          *gorm.DB
	serviceName string
	cache       map[string]interface{}
	mu          sync.RWMutex
	stopCh      chan struct{}
}

// NewManager creates a config manager and performs an initial load. A nil db
// is accepted — the manager then simply serves defaults forever, which lets
// the engine run with no external config store configured.
func NewManager(db *gorm.DB, serviceName string) *Manager {
	m := &Manager{
		db:          db,
		serviceName: serviceName,
		cache:       make(map[string]interface{}),
		stopCh:      make(chan struct{}),
	}

	if db != nil {
		if err := m.Reload(); err != nil {
			log.Printf("[CONFIG] initial load failed: %v", err)
		}
		go m.startHotReload()
	}

	return m
}

// Reload re-reads every PricingConfigEntry for this service from the store.
func (m *Manager) Reload() error {
	if m.db == nil {
		return nil
	}

	var entries []PricingConfigEntry
	if err := m.db.Where("service_name = ?", m.serviceName).Find(&entries).Error; err != nil {
		return fmt.Errorf("load pricing config: %w", err)
	}

	next := make(map[string]interface{}, len(entries))
	for _, e := range entries {
		var v interface{}
		if err := json.Unmarshal(e.ConfigValue, &v); err != nil {
			log.Printf("[CONFIG] skipping %s: %v", e.ConfigKey, err)
			continue
		}
		next[e.ConfigKey] = v
	}

	m.mu.Lock()
	m.cache = next
	m.mu.Unlock()
	return nil
}

func (m *Manager) Get(key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.cache[key]
	return v, ok
}

func (m *Manager) GetString(key, fallback string) string {
	if v, ok := m.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

func (m *Manager) GetInt(key string, fallback int) int {
	if v, ok := m.Get(key); ok {
		if f, ok := v.(float64); ok { // JSON numbers decode as float64
			return int(f)
		}
	}
	return fallback
}

func (m *Manager) GetFloat(key string, fallback float64) float64 {
	if v, ok := m.Get(key); ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return fallback
}

// Set writes a new value for key, recording the prior value in history.
func (m *Manager) Set(key string, value interface{}, updatedBy, reason string) error {
	if m.db == nil {
		return fmt.Errorf("config manager has no backing store")
	}

	newBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	var existing PricingConfigEntry
	hasExisting := m.db.Where("service_name = ? AND config_key = ?", m.serviceName, key).
		First(&existing).Error == nil

	entry := PricingConfigEntry{
		ServiceName: m.serviceName,
		ConfigKey:   key,
		ConfigValue: newBytes,
		UpdatedBy:   updatedBy,
		LastUpdated: time.Now(),
	}

	if hasExisting {
		entry.ID = existing.ID
		entry.Version = existing.Version + 1
		err = m.db.Save(&entry).Error
	} else {
		entry.Version = 1
		err = m.db.Create(&entry).Error
	}
	if err != nil {
		return fmt.Errorf("save pricing config: %w", err)
	}

	hist := PricingConfigHistory{
		ServiceName:  m.serviceName,
		ConfigKey:    key,
		NewValue:     newBytes,
		ChangedBy:    updatedBy,
		ChangeReason: reason,
		ChangedAt:    time.Now(),
	}
	if hasExisting {
		hist.OldValue = existing.ConfigValue
	}
	m.db.Create(&hist)

	m.mu.Lock()
	m.cache[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Manager) startHotReload() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.Reload(); err != nil {
				log.Printf("[CONFIG] hot-reload failed: %v", err)
			}
		case <-m.stopCh:
			return
		}
	}
}

// Close stops the hot-reload goroutine. Safe to call on a manager with no
// backing store.
func (m *Manager) Close() {
	select {
	case <-m.stopCh:
		// already closed
	default:
		close(m.stopCh)
	}
}

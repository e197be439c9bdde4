// Package models holds the gorm-backed records the core reads from (and,
// for audit, writes to) an external store. Broker configs and client
// records are read-only from the core's perspective — this module never
// writes them.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BrokerConfig is a client's fee arrangement: markup percentage plus either
// a flat or percentage-of-position transaction fee.
type BrokerConfig struct {
	ClientID  string          `gorm:"column:client_id;primaryKey"`
	MarkupPct decimal.Decimal `gorm:"column:markup_pct;type:numeric(10,4)"`
	FeeType   string          `gorm:"column:fee_type"` // FLAT | PERCENTAGE
	FeeAmount decimal.Decimal `gorm:"column:fee_amount;type:numeric(18,4)"`
	Active    bool            `gorm:"column:active"`
	UpdatedAt time.Time       `gorm:"column:updated_at"`
}

func (BrokerConfig) TableName() string {
	return "broker_configs"
}

// ClientRecord carries a client's resolved rate-limit tier.
type ClientRecord struct {
	ClientID string `gorm:"column:client_id;primaryKey"`
	Tier     string `gorm:"column:tier"` // STANDARD | PREMIUM
	Active   bool   `gorm:"column:active"`
}

func (ClientRecord) TableName() string {
	return "client_records"
}

// AuditRecord is the optional, best-effort durable form of an audit entry
// (C9). Durability is explicitly a pluggable concern the orchestrator never
// blocks on; this table exists for deployments that choose to persist.
type AuditRecord struct {
	ID              uint      `gorm:"primaryKey"`
	AuditID         string    `gorm:"column:audit_id;uniqueIndex"`
	ClientID        string    `gorm:"column:client_id;index"`
	Ticker          string    `gorm:"column:ticker"`
	PositionValue   string    `gorm:"column:position_value"`
	LoanDays        int       `gorm:"column:loan_days"`
	BorrowRateUsed  string    `gorm:"column:borrow_rate_used"`
	TotalFee        string    `gorm:"column:total_fee"`
	BreakdownJSON   string    `gorm:"column:breakdown_json;type:jsonb"`
	DataSourcesJSON string    `gorm:"column:data_sources_json;type:jsonb"`
	Timestamp       time.Time `gorm:"column:timestamp;index"`
}

func (AuditRecord) TableName() string {
	return "audit_records"
}

package audit

import (
	"encoding/json"
	"log"

	"gorm.io/gorm"

	"arespricing/internal/models"
)

// GormSink persists audit records to the audit_records table. It is an
// optional, best-effort durability backend — the Emitter treats it like any
// other Sink and never blocks the request path on it.
type GormSink struct {
	db *gorm.DB
}

// NewGormSink builds a GormSink over db.
func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

// Emit writes r as a models.AuditRecord row.
func (s *GormSink) Emit(r Record) error {
	breakdownJSON, err := json.Marshal(r.Breakdown)
	if err != nil {
		return err
	}
	sourcesJSON, err := json.Marshal(r.DataSources)
	if err != nil {
		return err
	}

	row := models.AuditRecord{
		AuditID:         r.AuditID,
		ClientID:        r.ClientID,
		Ticker:          r.Ticker,
		PositionValue:   r.PositionValue.String(),
		LoanDays:        r.LoanDays,
		BorrowRateUsed:  r.BorrowRateUsed.String(),
		TotalFee:        r.TotalFee.String(),
		BreakdownJSON:   string(breakdownJSON),
		DataSourcesJSON: string(sourcesJSON),
		Timestamp:       r.Timestamp,
	}

	if err := s.db.Create(&row).Error; err != nil {
		log.Printf("[AUDIT][GORM] failed to persist audit %s: %v", r.AuditID, err)
		return err
	}
	return nil
}

package observability

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
)

// ServiceSpan is one completed span as gormSpanExporter persists it: the
// durable half of the tracing pipeline, alongside stdouttrace's
// development-time stream.
type ServiceSpan struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	TraceID       uuid.UUID       `json:"trace_id" gorm:"type:uuid;not null"`
	SpanID        string          `json:"span_id" gorm:"not null;unique"`
	ParentSpanID  string          `json:"parent_span_id,omitempty"`
	ServiceName   string          `json:"service_name" gorm:"not null"`
	OperationName string          `json:"operation_name" gorm:"not null"`
	StartTime     time.Time       `json:"start_time" gorm:"not null"`
	EndTime       *time.Time      `json:"end_time,omitempty"`
	DurationMs    *int            `json:"duration_ms,omitempty"`
	Status        string          `json:"status,omitempty"` // ok, error
	Tags          json.RawMessage `json:"tags,omitempty" gorm:"type:jsonb"`
}

func (ServiceSpan) TableName() string {
	return "service_spans"
}

// gormSpanExporter implements sdktrace.SpanExporter. It is registered as a
// batcher in SetupOTelSDK alongside stdouttrace, so every span
// orchestrator.CalculateFee opens via StartSpan — one per upstream fetch,
// one per C5/C6 compose call — lands as a ServiceSpan row.
type gormSpanExporter struct {
	db *gorm.DB
}

func newGormSpanExporter(db *gorm.DB) *gormSpanExporter {
	return &gormSpanExporter{db: db}
}

// ExportSpans converts a batch of completed spans to ServiceSpan rows and
// bulk-inserts them. A write failure is logged, not returned as fatal —
// tracing is best-effort and must never affect the request path it
// observes.
func (e *gormSpanExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if len(spans) == 0 {
		return nil
	}

	records := make([]ServiceSpan, 0, len(spans))
	for _, s := range spans {
		sc := s.SpanContext()
		start := s.StartTime()
		end := s.EndTime()

		var endPtr *time.Time
		var durMs *int
		if !end.IsZero() {
			e := end
			endPtr = &e
			d := int(end.Sub(start).Milliseconds())
			durMs = &d
		}

		var parentSpanID string
		if s.Parent().IsValid() {
			parentSpanID = s.Parent().SpanID().String()
		}

		status := "ok"
		if s.Status().Code == codes.Error {
			status = "error"
		}

		tagsJSON, err := json.Marshal(attrsToMap(s.Attributes()))
		if err != nil {
			tagsJSON = nil
		}

		records = append(records, ServiceSpan{
			TraceID:       uuid.UUID(sc.TraceID()),
			SpanID:        sc.SpanID().String(),
			ParentSpanID:  parentSpanID,
			ServiceName:   "locate-pricing-engine",
			OperationName: s.Name(),
			StartTime:     start,
			EndTime:       endPtr,
			DurationMs:    durMs,
			Status:        status,
			Tags:          tagsJSON,
		})
	}

	if err := e.db.WithContext(ctx).Create(&records).Error; err != nil {
		log.Printf("[SPAN] ⚠️  failed to persist %d span(s): %v", len(records), err)
		return err
	}
	return nil
}

// Shutdown satisfies sdktrace.SpanExporter; there is no separate resource
// to release beyond the *gorm.DB the caller owns.
func (e *gormSpanExporter) Shutdown(ctx context.Context) error {
	return nil
}

func attrsToMap(attrs []attribute.KeyValue) map[string]interface{} {
	m := make(map[string]interface{}, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value.AsInterface()
	}
	return m
}

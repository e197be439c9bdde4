// Package audit implements the pluggable audit record emitter (C9):
// serializes a complete calculation breakdown with data provenance,
// at-least-once, without ever blocking the response on durability.
package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// DataSource records one upstream input consumed for a calculation,
// preserving the fallback flag all the way into the audit trail.
type DataSource struct {
	Name       string `json:"name"`
	Source     string `json:"source"`
	IsFallback bool   `json:"isFallback"`
}

// Record is the complete audit entry emitted once per successful fresh
// calculation (cache hits do not re-emit — a prior audit already exists).
type Record struct {
	AuditID        string                 `json:"auditId"`
	Seq            int64                  `json:"seq"`
	Timestamp      time.Time              `json:"timestamp"`
	ClientID       string                 `json:"clientId"`
	Ticker         string                 `json:"ticker"`
	PositionValue  decimal.Decimal        `json:"positionValue"`
	LoanDays       int                    `json:"loanDays"`
	BorrowRateUsed decimal.Decimal        `json:"borrowRateUsed"`
	TotalFee       decimal.Decimal        `json:"totalFee"`
	Breakdown      map[string]decimal.Decimal `json:"breakdown"`
	DataSources    []DataSource           `json:"dataSources"`
}

// Sink persists or forwards a Record. Implementations must not block
// indefinitely — the emitter already isolates callers from sink latency via
// a bounded channel, but a sink that hangs forever will eventually starve
// the worker pool.
type Sink interface {
	Emit(r Record) error
}

// LogSink writes structured log lines. It is always present regardless of
// what durable sinks are configured, as the one guaranteed audit trail.
type LogSink struct{}

// NewLogSink builds a LogSink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Emit logs r as a single structured line.
func (s *LogSink) Emit(r Record) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	log.Printf("[AUDIT] %s", string(payload))
	return nil
}

// Emitter fans a Record out to every configured Sink on a bounded worker
// pool. A full queue drops the oldest pending entry and logs a warning
// rather than blocking the caller — emission failure must never fail the
// response that triggered it.
type Emitter struct {
	sinks   []Sink
	queue   chan Record
	workers int
}

// NewEmitter builds an Emitter with the given sinks, a queue of the given
// depth, and workerCount background workers draining it.
func NewEmitter(sinks []Sink, queueDepth, workerCount int) *Emitter {
	e := &Emitter{
		sinks:   sinks,
		queue:   make(chan Record, queueDepth),
		workers: workerCount,
	}
	for i := 0; i < workerCount; i++ {
		go e.worker()
	}
	return e
}

func (e *Emitter) worker() {
	for r := range e.queue {
		for _, sink := range e.sinks {
			if err := sink.Emit(r); err != nil {
				log.Printf("[AUDIT][WARN] sink emit failed for audit %s: %v", r.AuditID, err)
			}
		}
	}
}

// Submit enqueues r for emission. If the queue is full, the oldest pending
// record is dropped to make room — Submit never blocks the caller.
func (e *Emitter) Submit(r Record) {
	select {
	case e.queue <- r:
	default:
		select {
		case <-e.queue:
			log.Printf("[AUDIT][WARN] emitter queue full, dropped oldest pending record")
		default:
		}
		select {
		case e.queue <- r:
		default:
			log.Printf("[AUDIT][WARN] emitter queue still full, dropping record %s", r.AuditID)
		}
	}
}

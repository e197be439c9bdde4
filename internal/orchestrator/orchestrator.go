// Package orchestrator implements the calculate-fee request flow (C8): the
// single place that sequences validation, the calculation cache, the three
// independent upstream fetches, and the two pure compose steps (C5, C6)
// into one result, emitting an audit record on every fresh computation.
package orchestrator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/codes"

	"arespricing/internal/apperr"
	"arespricing/internal/audit"
	"arespricing/internal/cache"
	"arespricing/internal/concurrency"
	"arespricing/internal/feeengine"
	"arespricing/internal/models"
	"arespricing/internal/observability"
	"arespricing/internal/rateengine"
	"arespricing/internal/upstream"
	"arespricing/internal/validation"
)

// The three upstream fetchers and the broker-config lookup are consumed
// through narrow interfaces rather than the concrete *upstream.* / *store.*
// types, so tests can substitute hand-written fakes instead of standing up
// real HTTP/DB dependencies. *upstream.BorrowRateClient etc. and
// *store.BrokerConfigStore already satisfy these.
type borrowRateFetcher interface {
	Fetch(ctx context.Context, ticker string) upstream.RateSnapshot
}

type volatilityFetcher interface {
	FetchForTicker(ctx context.Context, ticker string) upstream.VolatilitySnapshot
}

type eventRiskFetcher interface {
	Fetch(ctx context.Context, ticker string) upstream.EventRisk
}

type brokerConfigLookup interface {
	LookupBrokerConfig(ctx context.Context, clientID string) (models.BrokerConfig, error)
}

// CalculateResult is the calculate-fee operation's success payload.
type CalculateResult struct {
	TotalFee       decimal.Decimal    `json:"totalFee"`
	BorrowRateUsed decimal.Decimal    `json:"borrowRateUsed"`
	Breakdown      feeengine.Breakdown `json:"breakdown"`
}

// RateResult is the get-rate operation's success payload.
type RateResult struct {
	Ticker      string    `json:"ticker"`
	CurrentRate decimal.Decimal `json:"currentRate"`
	Status      string    `json:"status"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Orchestrator wires every component into the request flows spec.md §4.8
// describes. It holds no global state — every dependency is a field set at
// construction and passed in explicitly, matching the engine's stance
// against module-scope mutable state.
type Orchestrator struct {
	borrowClient borrowRateFetcher
	volClient    volatilityFetcher
	eventClient  eventRiskFetcher
	brokerStore  brokerConfigLookup
	cacheStore   cache.Store
	auditEmitter *audit.Emitter
	seq          *concurrency.SequenceGenerator
	metrics      *observability.MetricsCollector
	logger       *observability.Logger

	minBorrowRate   decimal.Decimal
	volFactor       decimal.Decimal
	eventFactor     decimal.Decimal
	calcCacheTTL    time.Duration
	requestDeadline time.Duration
}

// Config bundles Orchestrator's construction dependencies.
type Config struct {
	BorrowClient    borrowRateFetcher
	VolClient       volatilityFetcher
	EventClient     eventRiskFetcher
	BrokerStore     brokerConfigLookup
	CacheStore      cache.Store
	AuditEmitter    *audit.Emitter
	Seq             *concurrency.SequenceGenerator
	Metrics         *observability.MetricsCollector
	Logger          *observability.Logger
	MinBorrowRate   decimal.Decimal
	VolFactor       decimal.Decimal
	EventFactor     decimal.Decimal
	CalcCacheTTL    time.Duration
	RequestDeadline time.Duration
}

// New builds an Orchestrator from cfg.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		borrowClient:    cfg.BorrowClient,
		volClient:       cfg.VolClient,
		eventClient:     cfg.EventClient,
		brokerStore:     cfg.BrokerStore,
		cacheStore:      cfg.CacheStore,
		auditEmitter:    cfg.AuditEmitter,
		seq:             cfg.Seq,
		metrics:         cfg.Metrics,
		logger:          cfg.Logger,
		minBorrowRate:   cfg.MinBorrowRate,
		volFactor:       cfg.VolFactor,
		eventFactor:     cfg.EventFactor,
		calcCacheTTL:    cfg.CalcCacheTTL,
		requestDeadline: cfg.RequestDeadline,
	}
}

// CalculateFee runs the full eight-step flow from spec.md §4.8: validate,
// resolve the broker config, check the calculation cache, fan out to the
// three upstreams on a miss, compose the rate and fee, write the cache,
// emit an audit record, and return.
func (o *Orchestrator) CalculateFee(ctx context.Context, raw validation.CalculateFeeInput) (CalculateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.requestDeadline)
	defer cancel()

	if o.metrics != nil {
		stop := o.metrics.StartTimer("calculate_fee_duration_ms", nil)
		defer stop()
	}

	normalized, err := validation.ValidateCalculateFee(raw)
	if err != nil {
		o.recordOutcome("invalid_parameter")
		return CalculateResult{}, err
	}

	brokerCfg, err := o.brokerStore.LookupBrokerConfig(ctx, normalized.ClientID)
	if err != nil {
		o.recordOutcome("client_not_found")
		return CalculateResult{}, err
	}

	fingerprint := cache.Fingerprint(normalized.Ticker, normalized.PositionValue, normalized.LoanDays, brokerCfg.MarkupPct, brokerCfg.FeeType, brokerCfg.FeeAmount)
	key := cache.Key(cache.NamespaceCalculation, fingerprint)

	// Step 3: a calculation-cache hit never re-emits an audit record — a
	// prior audit already exists for this fingerprint.
	if raw, hit := o.cacheStore.Get(ctx, key); hit {
		var cached CalculateResult
		if err := json.Unmarshal(raw, &cached); err == nil {
			o.recordOutcome("cache_hit")
			return cached, nil
		}
	}

	// Step 4: the three upstream fetches are independent; issue them in
	// parallel and join before composing. A single request never makes more
	// than one fetch attempt per upstream — retries live inside C3. Each
	// fetch runs inside its own span so upstream latency is attributable
	// per-upstream rather than folded into the request-wide timer.
	var rateSnap upstream.RateSnapshot
	var volSnap upstream.VolatilitySnapshot
	var riskSnap upstream.EventRisk
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		spanCtx, span := observability.StartSpan(ctx, "upstream.borrow_rate.fetch")
		rateSnap = o.borrowClient.Fetch(spanCtx, normalized.Ticker)
		span.End()
	}()
	go func() {
		defer wg.Done()
		spanCtx, span := observability.StartSpan(ctx, "upstream.volatility.fetch")
		volSnap = o.volClient.FetchForTicker(spanCtx, normalized.Ticker)
		span.End()
	}()
	go func() {
		defer wg.Done()
		spanCtx, span := observability.StartSpan(ctx, "upstream.event_risk.fetch")
		riskSnap = o.eventClient.Fetch(spanCtx, normalized.Ticker)
		span.End()
	}()
	wg.Wait()

	if ctx.Err() != nil {
		o.recordOutcome("deadline_exceeded")
		return CalculateResult{}, apperr.Wrap(apperr.KindExternalUnavailable, "request deadline exceeded while awaiting upstream data", ctx.Err())
	}

	o.logFallbacks(ctx, normalized.Ticker, rateSnap, volSnap, riskSnap)

	// Step 5: compose the final rate.
	_, rateSpan := observability.StartSpan(ctx, "rateengine.compose")
	finalRate := rateengine.Compose(rateengine.Inputs{
		BaseRate:    rateSnap.BaseRate,
		VolIndex:    volSnap.VolIndex,
		RiskFactor:  riskSnap.RiskFactor,
		MinRate:     o.minBorrowRate,
		VolFactor:   o.volFactor,
		EventFactor: o.eventFactor,
	})
	rateSpan.End()

	// Step 6: compose the fee breakdown.
	_, feeSpan := observability.StartSpan(ctx, "feeengine.compose")
	breakdown, err := feeengine.Compose(feeengine.Inputs{
		PositionValue: normalized.PositionValue,
		LoanDays:      normalized.LoanDays,
		AnnualRate:    finalRate,
		MarkupPct:     brokerCfg.MarkupPct,
		FeeType:       feeengine.FeeType(brokerCfg.FeeType),
		FeeAmount:     brokerCfg.FeeAmount,
	})
	if err != nil {
		feeSpan.SetStatus(codes.Error, err.Error())
		feeSpan.End()
		o.recordOutcome("calculation_error")
		return CalculateResult{}, err
	}
	feeSpan.End()

	result := CalculateResult{
		TotalFee:       breakdown.TotalFee,
		BorrowRateUsed: finalRate,
		Breakdown:      breakdown,
	}

	// Step 7: write the calculation cache.
	if encoded, err := json.Marshal(result); err == nil {
		o.cacheStore.Set(ctx, key, encoded, o.calcCacheTTL)
	}

	o.recordOutcome("success")

	// Step 8: emit audit, then return — audit never blocks the response.
	o.emitAudit(normalized, rateSnap, volSnap, riskSnap, result)

	return result, nil
}

// recordOutcome counts one calculate-fee attempt by how it resolved. A nil
// metrics collector (e.g. in tests) makes this a no-op.
func (o *Orchestrator) recordOutcome(outcome string) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordCounter("calculate_fee_total", 1, map[string]string{"outcome": outcome})
}

// logFallbacks reports any of the three upstream snapshots that served a
// fallback instead of live data, so a degraded calculation is traceable
// back to its cause without cross-referencing the audit record. A nil
// logger/metrics collector (tests) makes each report a no-op.
func (o *Orchestrator) logFallbacks(ctx context.Context, ticker string, rateSnap upstream.RateSnapshot, volSnap upstream.VolatilitySnapshot, riskSnap upstream.EventRisk) {
	report := func(name, source string, isFallback bool) {
		if !isFallback {
			return
		}
		if o.logger != nil {
			o.logger.LogUpstreamFallback(ctx, name, ticker, source)
		}
		if o.metrics != nil {
			o.metrics.RecordUpstreamFallback(name)
		}
	}
	report("borrow_rate", rateSnap.Source, rateSnap.IsFallback)
	report("volatility", volSnap.Source, volSnap.IsFallback)
	report("event_risk", riskSnap.Source, riskSnap.IsFallback)
}

func (o *Orchestrator) emitAudit(in validation.NormalizedFeeInput, rateSnap upstream.RateSnapshot, volSnap upstream.VolatilitySnapshot, riskSnap upstream.EventRisk, result CalculateResult) {
	record := audit.Record{
		AuditID:        uuid.NewString(),
		Seq:            o.seq.Next(),
		Timestamp:      time.Now(),
		ClientID:       in.ClientID,
		Ticker:         in.Ticker,
		PositionValue:  in.PositionValue,
		LoanDays:       in.LoanDays,
		BorrowRateUsed: result.BorrowRateUsed,
		TotalFee:       result.TotalFee,
		Breakdown: map[string]decimal.Decimal{
			"borrowCost":      result.Breakdown.BorrowCost,
			"markup":          result.Breakdown.Markup,
			"transactionFees": result.Breakdown.TransactionFees,
			"totalFee":        result.Breakdown.TotalFee,
		},
		DataSources: []audit.DataSource{
			{Name: "borrow_rate", Source: rateSnap.Source, IsFallback: rateSnap.IsFallback},
			{Name: "volatility", Source: volSnap.Source, IsFallback: volSnap.IsFallback},
			{Name: "event_risk", Source: riskSnap.Source, IsFallback: riskSnap.IsFallback},
		},
	}
	o.auditEmitter.Submit(record)
}

// GetRate serves the get-rate operation: the current borrow-rate snapshot
// for ticker, without composing a fee.
func (o *Orchestrator) GetRate(ctx context.Context, rawTicker string) (RateResult, error) {
	ticker, fe := validation.ValidateTicker(rawTicker)
	if fe != nil {
		return RateResult{}, apperr.New(apperr.KindInvalidParameter, "invalid ticker").
			WithDetails(map[string]interface{}{"validation_errors": []validation.FieldError{*fe}})
	}

	snap := o.borrowClient.Fetch(ctx, ticker)
	return RateResult{
		Ticker:      ticker,
		CurrentRate: snap.BaseRate,
		Status:      string(snap.Status),
		LastUpdated: snap.Timestamp,
	}, nil
}

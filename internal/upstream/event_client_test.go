package upstream

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func risk(v float64) *float64 { return &v }

func TestEventRiskClient_Fetch_MaxRiskFactorOverEvents(t *testing.T) {
	transport := fakeJSON(eventCalendarResponse{Events: []eventEntry{
		{EventID: "e1", RiskFactor: risk(2.0)},
		{EventID: "e2", RiskFactor: risk(7.5)},
		{EventID: "e3", RiskFactor: risk(4.0)},
	}})
	client := NewEventRiskClient(transport, noopCache{}, time.Minute, noRetryGuarded(), 30)

	got := client.Fetch(context.Background(), "AAPL")
	if got.IsFallback {
		t.Fatal("expected a non-fallback result")
	}
	if !got.RiskFactor.Equal(decimal.NewFromFloat(7.5)) {
		t.Errorf("RiskFactor = %s, want max 7.5", got.RiskFactor)
	}
	if len(got.SourceEvents) != 3 {
		t.Errorf("SourceEvents = %v, want all 3 events included", got.SourceEvents)
	}
}

func TestEventRiskClient_Fetch_RiskFactorClampedToTen(t *testing.T) {
	transport := fakeJSON(eventCalendarResponse{Events: []eventEntry{
		{EventID: "e1", RiskFactor: risk(15.0)},
	}})
	client := NewEventRiskClient(transport, noopCache{}, time.Minute, noRetryGuarded(), 30)

	got := client.Fetch(context.Background(), "AAPL")
	if !got.RiskFactor.Equal(decimal.NewFromInt(10)) {
		t.Errorf("RiskFactor = %s, want clamped to 10", got.RiskFactor)
	}
}

func TestEventRiskClient_Fetch_EventsMissingRiskFactorAreSkipped(t *testing.T) {
	transport := fakeJSON(eventCalendarResponse{Events: []eventEntry{
		{EventID: "e1", RiskFactor: nil},
		{EventID: "e2", RiskFactor: risk(3.0)},
	}})
	client := NewEventRiskClient(transport, noopCache{}, time.Minute, noRetryGuarded(), 30)

	got := client.Fetch(context.Background(), "AAPL")
	if !got.RiskFactor.Equal(decimal.NewFromFloat(3.0)) {
		t.Errorf("RiskFactor = %s, want 3.0 (nil-risk event skipped)", got.RiskFactor)
	}
	if len(got.SourceEvents) != 1 || got.SourceEvents[0] != "e2" {
		t.Errorf("SourceEvents = %v, want only e2", got.SourceEvents)
	}
}

func TestEventRiskClient_Fetch_NoEventsYieldsZeroRisk(t *testing.T) {
	transport := fakeJSON(eventCalendarResponse{Events: nil})
	client := NewEventRiskClient(transport, noopCache{}, time.Minute, noRetryGuarded(), 30)

	got := client.Fetch(context.Background(), "AAPL")
	if got.IsFallback {
		t.Fatal("an empty event list is not an upstream failure")
	}
	if !got.RiskFactor.Equal(decimal.Zero) {
		t.Errorf("RiskFactor = %s, want 0", got.RiskFactor)
	}
}

func TestEventRiskClient_Fetch_FallsBackOnTransportError(t *testing.T) {
	transport := fakeFailure(errUpstream)
	client := NewEventRiskClient(transport, noopCache{}, time.Minute, noRetryGuarded(), 30)

	got := client.Fetch(context.Background(), "AAPL")
	if !got.IsFallback {
		t.Fatal("expected fallback on transport error")
	}
	if !got.RiskFactor.Equal(decimal.Zero) {
		t.Errorf("fallback RiskFactor = %s, want 0", got.RiskFactor)
	}
}

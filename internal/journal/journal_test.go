package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"zorrobridge/internal/domain"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndEvents(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	events := []Event{
		{SessionID: "s1", TradeID: 7, BrokerOrderID: "b-1", ClientOrderID: "ZORRO__7",
			Symbol: "AAPL", Side: domain.Buy, Qty: 100, Status: domain.StatusNew, Kind: EventSubmitted},
		{SessionID: "s1", TradeID: 7, BrokerOrderID: "b-1", ClientOrderID: "ZORRO__7",
			Symbol: "AAPL", Side: domain.Buy, Qty: 100, FilledQty: 100, AvgPrice: 10.0,
			Status: domain.StatusFilled, Kind: EventPolled},
	}
	for _, e := range events {
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}

	got, err := j.Events(ctx, 7)
	if err != nil {
		t.Fatalf("Events returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Events returned %d rows, want 2", len(got))
	}
	if got[0].Kind != EventSubmitted || got[1].Kind != EventPolled {
		t.Errorf("event order = %q, %q", got[0].Kind, got[1].Kind)
	}
	if got[1].FilledQty != 100 || got[1].AvgPrice != 10.0 {
		t.Errorf("fill event = %+v", got[1])
	}
	if got[1].Status != domain.StatusFilled || got[1].Side != domain.Buy {
		t.Errorf("enums round-tripped wrong: %+v", got[1])
	}
}

func TestEventsUnknownTrade(t *testing.T) {
	j := openTestJournal(t)
	got, err := j.Events(context.Background(), 404)
	if err != nil {
		t.Fatalf("Events returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Events for unknown trade returned %d rows", len(got))
	}
}

func TestCountBySession(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := j.Record(ctx, Event{SessionID: "s1", TradeID: i + 1, Kind: EventSubmitted}); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}
	if err := j.Record(ctx, Event{SessionID: "s2", TradeID: 9, Kind: EventSubmitted}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	n, err := j.CountBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("CountBySession returned error: %v", err)
	}
	if n != 3 {
		t.Errorf("CountBySession(s1) = %d, want 3", n)
	}
}

func TestRecordStampsTime(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	if err := j.Record(ctx, Event{SessionID: "s1", TradeID: 1, Kind: EventSubmitted}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	got, err := j.Events(ctx, 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("Events = %v, %v", got, err)
	}
	if got[0].At.Before(before) {
		t.Errorf("event timestamp %v predates the call", got[0].At)
	}
}

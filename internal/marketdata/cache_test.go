package marketdata

import (
	"testing"
	"time"

	"zorrobridge/internal/domain"
)

func testBar(sym string, ts time.Time, close float64) domain.Bar {
	return domain.Bar{
		Symbol:    sym,
		Timestamp: ts,
		Open:      close - 0.5,
		High:      close + 0.5,
		Low:       close - 1,
		Close:     close,
		Volume:    1000,
	}
}

func TestBarCacheRoundTrip(t *testing.T) {
	cache := NewBarCache(t.TempDir())
	base := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	bars := []domain.Bar{
		testBar("AAPL", base, 10),
		testBar("AAPL", base.Add(time.Minute), 11),
		testBar("aapl", base.Add(2*time.Minute), 12), // symbol case normalised
	}
	if err := cache.Write(bars); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	got, err := cache.Read("AAPL", base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Read returned %d bars, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Fatal("bars not ordered by timestamp")
		}
	}
	if got[0].Close != 10 || got[2].Close != 12 {
		t.Errorf("closes = %v, %v", got[0].Close, got[2].Close)
	}
}

func TestBarCacheMergeDedupe(t *testing.T) {
	cache := NewBarCache(t.TempDir())
	base := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	if err := cache.Write([]domain.Bar{testBar("MSFT", base, 100)}); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	// Same timestamp again with a corrected close: incoming wins.
	if err := cache.Write([]domain.Bar{testBar("MSFT", base, 101)}); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	got, err := cache.Read("MSFT", base.Add(-time.Minute), base.Add(time.Minute))
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Read returned %d bars, want 1 after dedupe", len(got))
	}
	if got[0].Close != 101 {
		t.Errorf("Close = %v, want 101 (incoming record wins)", got[0].Close)
	}
}

func TestBarCacheRangeFilter(t *testing.T) {
	cache := NewBarCache(t.TempDir())
	base := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

	var bars []domain.Bar
	for i := 0; i < 10; i++ {
		bars = append(bars, testBar("SPY", base.Add(time.Duration(i)*time.Minute), 400+float64(i)))
	}
	if err := cache.Write(bars); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	got, err := cache.Read("SPY", base.Add(2*time.Minute), base.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("Read returned %d bars, want 4 (inclusive range)", len(got))
	}
}

func TestBarCacheSymbols(t *testing.T) {
	cache := NewBarCache(t.TempDir())
	base := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	if err := cache.Write([]domain.Bar{testBar("MSFT", base, 1), testBar("AAPL", base, 2)}); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	symbols, err := cache.Symbols()
	if err != nil {
		t.Fatalf("Symbols returned error: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "MSFT" {
		t.Errorf("Symbols = %v, want [AAPL MSFT]", symbols)
	}
}

func TestBarCacheEmpty(t *testing.T) {
	cache := NewBarCache(t.TempDir())

	if err := cache.Write(nil); err != nil {
		t.Errorf("Write(nil) returned error: %v", err)
	}
	got, err := cache.Read("AAPL", time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Errorf("Read on empty cache returned error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Read on empty cache returned %d bars", len(got))
	}
	symbols, err := cache.Symbols()
	if err != nil || symbols != nil {
		t.Errorf("Symbols on empty cache = %v, %v", symbols, err)
	}
}

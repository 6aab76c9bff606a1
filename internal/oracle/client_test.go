package oracle

import (
	"context"
	"math/big"
	"testing"
	"time"
)

func TestFeedID(t *testing.T) {
	id, err := FeedID("USDC")
	if err != nil {
		t.Fatalf("feed id failed: %v", err)
	}
	if id[0] != feedCategoryCrypto {
		t.Fatalf("category byte: got %#x", id[0])
	}
	if got := string(id[1:9]); got != "USDC/USD" {
		t.Fatalf("feed name: got %q", got)
	}
	for _, b := range id[9:] {
		if b != 0 {
			t.Fatalf("feed id not zero padded: %#x", id)
		}
	}
}

func TestFeedIDRejectsBadSymbols(t *testing.T) {
	if _, err := FeedID(""); err == nil {
		t.Fatal("expected error for empty symbol")
	}
	if _, err := FeedID("THIS-SYMBOL-IS-TOO-LONG"); err == nil {
		t.Fatal("expected error for oversized symbol")
	}
}

func TestPriceUSDServesCacheByFetchTime(t *testing.T) {
	// The feed's own timestamp is ancient; only the fetch time governs the
	// TTL. No RPC client is wired, so a cache miss would fail loudly.
	quote := Quote{Symbol: "USDC", PriceUSD: 0.9998, Timestamp: time.Unix(0, 0).UTC()}
	client := &Client{
		quoteCache: map[string]cachedQuote{
			"USDC": {quote: quote, fetchedAt: time.Now()},
		},
		cacheTTL: time.Minute,
	}

	got, err := client.PriceUSD(context.Background(), "USDC")
	if err != nil {
		t.Fatalf("cached read failed: %v", err)
	}
	if got != quote {
		t.Fatalf("expected cached quote, got %+v", got)
	}
}

func TestScalePrice(t *testing.T) {
	price, err := ScalePrice(big.NewInt(99985), 5)
	if err != nil {
		t.Fatalf("scale failed: %v", err)
	}
	if price < 0.99984 || price > 0.99986 {
		t.Fatalf("scaled price: got %v", price)
	}

	price, err = ScalePrice(big.NewInt(123), -2)
	if err != nil {
		t.Fatalf("scale failed: %v", err)
	}
	if price != 12300 {
		t.Fatalf("negative decimals: got %v", price)
	}

	if _, err := ScalePrice(nil, 0); err == nil {
		t.Fatal("expected error for nil value")
	}
}

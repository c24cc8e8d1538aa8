package etl_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/cmd/etl/internal/etl"
)

const marketsFixture = `[
	{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":42000.5,"market_cap":2000000000000,"total_volume":30000000000},
	{"id":"obscurecoin","symbol":"obs","name":"ObscureCoin","current_price":0.004,"market_cap":null,"total_volume":null}
]`

func TestCoinGecko_GetMarkets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("vs_currency") != "usd" || q.Get("order") != "market_cap_desc" || q.Get("per_page") != "10" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(marketsFixture))
	}))
	defer server.Close()

	client := etl.NewCoinGeckoClient(server.URL, "usd", 10, 5*time.Second)

	markets, err := client.GetMarkets(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(markets) != 2 {
		t.Fatalf("expected 2 markets, got %d", len(markets))
	}
	if markets[0].Symbol != "btc" || markets[0].CurrentPrice != 42000.5 {
		t.Errorf("unexpected first market: %+v", markets[0])
	}
	if markets[0].MarketCap == nil || *markets[0].MarketCap != 2e12 {
		t.Errorf("market cap not parsed: %+v", markets[0].MarketCap)
	}
	if markets[1].MarketCap != nil || markets[1].TotalVolume != nil {
		t.Errorf("null fields should decode to nil, got %+v", markets[1])
	}
}

func TestCoinGecko_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":{"error_code":429}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := etl.NewCoinGeckoClient(server.URL, "usd", 10, 5*time.Second)

	if _, err := client.GetMarkets(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

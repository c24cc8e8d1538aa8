package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/config"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/models"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/storage/postgres"
)

// These tests run against a local Postgres and are skipped when none is
// reachable. go test -v --run TestLatestSnapshots
func testClient(t *testing.T) *postgres.PostgresClient {
	t.Helper()

	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "crypto_test",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}

	client, err := postgres.InitializeAndMigrate(cfg, "local", true)
	if err != nil {
		t.Skipf("postgres not reachable, skipping: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if err := client.DB.Exec("DELETE FROM prices").Error; err != nil {
		t.Fatalf("failed to reset prices table: %v", err)
	}
	return client
}

func fp(f float64) *float64 { return &f }

func mustInsert(t *testing.T, client *postgres.PostgresClient, obs models.PriceObservation) {
	t.Helper()
	if err := client.InsertObservation(context.Background(), obs); err != nil {
		t.Fatalf("insert %s@%v failed: %v", obs.Symbol, obs.Timestamp, err)
	}
}

func TestLatestSnapshots_MaxTimestampPerSymbol(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	t1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(5 * time.Minute)

	mustInsert(t, client, models.PriceObservation{Symbol: "btc", Name: "Bitcoin", CurrentPrice: 100, MarketCap: fp(2e12), Timestamp: t1})
	mustInsert(t, client, models.PriceObservation{Symbol: "btc", Name: "Bitcoin", CurrentPrice: 110, MarketCap: fp(2e12), Timestamp: t2})
	mustInsert(t, client, models.PriceObservation{Symbol: "eth", Name: "Ethereum", CurrentPrice: 5, MarketCap: fp(4e11), Timestamp: t1})

	rows, err := client.LatestSnapshots(ctx)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected one row per symbol, got %d rows", len(rows))
	}
	// btc has the larger cap, so it comes first
	if rows[0].Symbol != "btc" || rows[1].Symbol != "eth" {
		t.Fatalf("wrong order: %s, %s", rows[0].Symbol, rows[1].Symbol)
	}
	if rows[0].CurrentPrice != 110 || !rows[0].Timestamp.Equal(t2) {
		t.Errorf("btc must carry its newest observation, got price=%v ts=%v", rows[0].CurrentPrice, rows[0].Timestamp)
	}
}

func TestLatestSnapshots_DuplicateTimestampRejected(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mustInsert(t, client, models.PriceObservation{Symbol: "btc", Name: "Bitcoin", CurrentPrice: 100, MarketCap: fp(2e12), Timestamp: ts})

	// A second row at the same (symbol, timestamp) dies on the unique index,
	// so the first write is the one the latest query can ever see
	err := client.InsertObservation(ctx, models.PriceObservation{Symbol: "btc", Name: "Bitcoin", CurrentPrice: 999, MarketCap: fp(2e12), Timestamp: ts})
	if !errors.Is(err, postgres.ErrDuplicateObservation) {
		t.Fatalf("expected ErrDuplicateObservation, got %v", err)
	}

	rows, err := client.LatestSnapshots(ctx)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one btc row, got %d", len(rows))
	}
	if rows[0].CurrentPrice != 100 {
		t.Errorf("first write must win, got price=%v", rows[0].CurrentPrice)
	}
}

func TestLatestSnapshots_EqualAndNullCapsDeterministic(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mustInsert(t, client, models.PriceObservation{Symbol: "aaa", Name: "A", CurrentPrice: 1, MarketCap: fp(1e9), Timestamp: ts})
	mustInsert(t, client, models.PriceObservation{Symbol: "bbb", Name: "B", CurrentPrice: 2, MarketCap: fp(1e9), Timestamp: ts})
	mustInsert(t, client, models.PriceObservation{Symbol: "thin", Name: "Thin", CurrentPrice: 3, Timestamp: ts})

	rows, err := client.LatestSnapshots(ctx)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	// Equal caps fall back to insertion order (id), null caps sort last
	if rows[0].Symbol != "aaa" || rows[1].Symbol != "bbb" {
		t.Errorf("equal caps must keep insertion order, got %s, %s", rows[0].Symbol, rows[1].Symbol)
	}
	if rows[2].Symbol != "thin" || rows[2].MarketCap != nil {
		t.Errorf("null cap must sort last, got %+v", rows[2])
	}
}

func TestHistoryRange_HalfOpenBounds(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	day1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	day3 := day2.Add(24 * time.Hour)

	mustInsert(t, client, models.PriceObservation{Symbol: "btc", Name: "Bitcoin", CurrentPrice: 100, Timestamp: day1})
	mustInsert(t, client, models.PriceObservation{Symbol: "btc", Name: "Bitcoin", CurrentPrice: 110, Timestamp: day2})
	mustInsert(t, client, models.PriceObservation{Symbol: "btc", Name: "Bitcoin", CurrentPrice: 120, Timestamp: day3})
	mustInsert(t, client, models.PriceObservation{Symbol: "eth", Name: "Ethereum", CurrentPrice: 5, Timestamp: day2})

	rows, err := client.HistoryRange(ctx, "BTC", day1, day3)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	// [day1, day3): the day3 row is excluded, eth never appears
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows in range, got %d", len(rows))
	}
	if rows[0].CurrentPrice != 100 || rows[1].CurrentPrice != 110 {
		t.Errorf("expected ascending rows 100, 110, got %v, %v", rows[0].CurrentPrice, rows[1].CurrentPrice)
	}

	all, err := client.HistoryRange(ctx, "btc", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("unbounded query failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("zero bounds must be unbounded, got %d rows", len(all))
	}
}

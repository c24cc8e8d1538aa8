package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/cmd/gateway/internal/api"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/cmd/gateway/internal/testutils"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/models"
)

func setup() (*http.ServeMux, *testutils.MockPriceStore, *testutils.MockBroadcaster) {
	store := testutils.NewMockStore()
	broadcaster := &testutils.MockBroadcaster{}
	mux := http.NewServeMux()
	api.NewHandler(store, broadcaster, zap.NewNop()).Register(mux)
	return mux, store, broadcaster
}

func TestLatest_ReturnsSnapshotSet(t *testing.T) {
	mux, store, _ := setup()
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.Snapshots = []models.PriceObservation{
		testutils.Obs("btc", 42000, 2e12, ts),
		testutils.Obs("eth", 2200, 4e11, ts),
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/crypto", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got []models.PriceObservation
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(got) != 2 || got[0].Symbol != "btc" || got[0].CurrentPrice != 42000 {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"current_price"`) {
		t.Errorf("expected snake_case field names, got: %s", rec.Body.String())
	}
}

func TestLatest_EmptyStoreIsEmptyArray(t *testing.T) {
	mux, _, _ := setup()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/crypto", nil))

	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func TestLatest_StoreErrorIs500(t *testing.T) {
	mux, store, _ := setup()
	store.Err = errors.New("dial tcp: connection refused")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/crypto", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHistory_DateBounds(t *testing.T) {
	mux, store, _ := setup()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/crypto/history/btc?startDate=2024-01-01&endDate=2024-01-02", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	wantFrom := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC) // endDate+1day, exclusive
	if !store.LastFrom.Equal(wantFrom) || !store.LastTo.Equal(wantTo) {
		t.Errorf("wrong range: from=%v to=%v", store.LastFrom, store.LastTo)
	}
	if store.LastSymbol != "btc" {
		t.Errorf("wrong symbol: %q", store.LastSymbol)
	}
}

func TestHistory_OmittedBoundsUnbounded(t *testing.T) {
	mux, store, _ := setup()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/crypto/history/eth", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !store.LastFrom.IsZero() || !store.LastTo.IsZero() {
		t.Errorf("omitted bounds should be zero times, got from=%v to=%v", store.LastFrom, store.LastTo)
	}
}

func TestHistory_NoRowsIsEmptyArrayNotError(t *testing.T) {
	mux, _, _ := setup()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/crypto/history/doge", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func TestHistory_BadDateIs400(t *testing.T) {
	mux, _, _ := setup()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/crypto/history/btc?startDate=01-01-2024", nil)
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", rec.Code)
	}
}

func TestNotifyUpdate_FiresTriggerAndReturnsImmediately(t *testing.T) {
	mux, _, broadcaster := setup()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notify-update", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if broadcaster.TriggerCount() != 1 {
		t.Errorf("expected exactly one trigger, got %d", broadcaster.TriggerCount())
	}
}

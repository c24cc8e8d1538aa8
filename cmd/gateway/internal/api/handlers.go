package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/cmd/gateway/internal/repository"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/models"
)

const dateLayout = "2006-01-02"

// Broadcaster is the trigger entry point of the push hub.
type Broadcaster interface {
	Trigger()
}

type Handler struct {
	store       repository.PriceStore
	broadcaster Broadcaster
	logger      *zap.Logger
}

func NewHandler(store repository.PriceStore, broadcaster Broadcaster, logger *zap.Logger) *Handler {
	return &Handler{
		store:       store,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/crypto", h.handleLatest)
	mux.HandleFunc("GET /api/crypto/history/{symbol}", h.handleHistory)
	mux.HandleFunc("POST /api/notify-update", h.handleNotifyUpdate)
}

// handleLatest serves the current snapshot set, one row per symbol ordered by
// market cap descending. This is the initial dashboard fetch; later updates
// arrive over the push channel.
func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.store.LatestSnapshots(r.Context())
	if err != nil {
		h.logger.Error("latest-price query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	if snapshots == nil {
		snapshots = []models.PriceObservation{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// handleHistory serves one symbol's rows inside [startDate 00:00:00Z,
// endDate+1day 00:00:00Z), ascending. No matching rows is an empty array,
// not an error.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")

	from, err := parseDate(r.URL.Query().Get("startDate"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid startDate, want YYYY-MM-DD")
		return
	}
	to, err := parseDate(r.URL.Query().Get("endDate"), 24*time.Hour)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid endDate, want YYYY-MM-DD")
		return
	}

	rows, err := h.store.HistoryRange(r.Context(), symbol, from, to)
	if err != nil {
		h.logger.Error("history query failed", zap.String("symbol", symbol), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	if rows == nil {
		rows = []models.PriceObservation{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleNotifyUpdate fires a broadcast trigger and returns immediately. The
// ingestion job calls this after committing new rows; the 200 does not wait
// for the broadcast to complete.
func (h *Handler) handleNotifyUpdate(w http.ResponseWriter, r *http.Request) {
	h.broadcaster.Trigger()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseDate turns "YYYY-MM-DD" into a UTC midnight bound, shifted by offset
// (the end bound is exclusive on the following midnight). Empty input means
// unbounded and yields the zero time.
func parseDate(raw string, offset time.Duration) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(offset), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

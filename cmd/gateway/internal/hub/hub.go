package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/cmd/gateway/internal/repository"
	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/models"
)

// Session is one subscriber's live push connection. Send must never block:
// it reports false when the message could not be handed to the connection
// (buffer full or session already closed).
type Session interface {
	ID() string
	Send(b []byte) bool
	Close()
}

// Hub owns the set of active subscriber sessions and pushes the latest
// snapshot set to each whenever triggered.
type Hub struct {
	store  repository.PriceStore
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[Session]bool

	triggerC chan struct{}
}

func NewHub(store repository.PriceStore, logger *zap.Logger) *Hub {
	return &Hub{
		store:    store,
		logger:   logger,
		sessions: make(map[Session]bool),
		triggerC: make(chan struct{}, 1),
	}
}

// Register adds a session to the active set. There is no replay: a fresh
// subscriber receives nothing until the next trigger, the initial page state
// comes from the REST fetch.
func (h *Hub) Register(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = true
}

// Unregister removes a session. Idempotent: calling it twice, or for a
// session that was never registered, is safe.
func (h *Hub) Unregister(s Session) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	delete(h.sessions, s)
	h.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Trigger schedules a broadcast pass and returns immediately. Triggers fired
// while a pass is running coalesce into a single follow-up pass, so passes
// never overlap and the session set is never mutated from two send loops.
func (h *Hub) Trigger() {
	select {
	case h.triggerC <- struct{}{}:
	default:
	}
}

// Run drains trigger requests until the context is done. Every broadcast pass
// executes on this one goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.triggerC:
			if err := h.BroadcastLatest(ctx); err != nil {
				// Skip this cycle; the next trigger tries again.
				h.logger.Error("broadcast pass skipped", zap.Error(err))
			}
		}
	}
}

// BroadcastLatest runs the latest-price query once and pushes the result to
// every open session. The session set is snapshotted before the send loop:
// subscribes and unsubscribes that land mid-pass are reflected in the next
// pass, and a session removed mid-iteration just fails its send harmlessly.
// A failed send unregisters that one session and never aborts the others.
func (h *Hub) BroadcastLatest(ctx context.Context) error {
	snapshots, err := h.store.LatestSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("latest-price query: %w", err)
	}

	payload, err := json.Marshal(models.Envelope{
		Kind: models.KindLatestUpdate,
		Data: snapshots,
	})
	if err != nil {
		return fmt.Errorf("marshal snapshot set: %w", err)
	}

	h.mu.RLock()
	targets := make([]Session, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if !s.Send(payload) {
			h.logger.Warn("dropping subscriber", zap.String("session_id", s.ID()))
			h.Unregister(s)
		}
	}

	return nil
}

// SessionCount reports how many sessions are currently registered.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

package testutils

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/models"
)

// MockSession simulates a connected websocket viewer
type MockSession struct {
	IDVal     string
	Sent      [][]byte
	Rejecting bool // when true, Send reports failure like a closed connection
	Closed    bool
	Mu        sync.Mutex
}

func NewMockSession(id string) *MockSession {
	return &MockSession{IDVal: id}
}

func (m *MockSession) ID() string { return m.IDVal }

func (m *MockSession) Send(b []byte) bool {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.Rejecting || m.Closed {
		return false
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	m.Sent = append(m.Sent, cp)
	return true
}

func (m *MockSession) Close() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
}

// Envelopes decodes everything the session received.
func (m *MockSession) Envelopes() []models.Envelope {
	m.Mu.Lock()
	defer m.Mu.Unlock()

	out := make([]models.Envelope, 0, len(m.Sent))
	for _, raw := range m.Sent {
		var env models.Envelope
		if err := json.Unmarshal(raw, &env); err == nil {
			out = append(out, env)
		}
	}
	return out
}

func (m *MockSession) SentCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Sent)
}

// MockPriceStore simulates the Postgres store
type MockPriceStore struct {
	Snapshots []models.PriceObservation
	History   []models.PriceObservation
	Err       error

	LatestCalls int
	LastSymbol  string
	LastFrom    time.Time
	LastTo      time.Time
	Mu          sync.Mutex
}

func NewMockStore() *MockPriceStore {
	return &MockPriceStore{}
}

func (m *MockPriceStore) LatestSnapshots(ctx context.Context) ([]models.PriceObservation, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.LatestCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Snapshots, nil
}

func (m *MockPriceStore) HistoryRange(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceObservation, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.LastSymbol, m.LastFrom, m.LastTo = symbol, from, to
	if m.Err != nil {
		return nil, m.Err
	}
	return m.History, nil
}

// MockBroadcaster records trigger calls
type MockBroadcaster struct {
	Mu       sync.Mutex
	Triggers int
}

func (m *MockBroadcaster) Trigger() {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Triggers++
}

func (m *MockBroadcaster) TriggerCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.Triggers
}

// FloatPtr is a shorthand for optional numeric fields.
func FloatPtr(f float64) *float64 { return &f }

// Obs builds a PriceObservation for tests.
func Obs(symbol string, price, marketCap float64, ts time.Time) models.PriceObservation {
	return models.PriceObservation{
		Symbol:       symbol,
		Name:         symbol,
		CurrentPrice: price,
		MarketCap:    FloatPtr(marketCap),
		Timestamp:    ts,
	}
}

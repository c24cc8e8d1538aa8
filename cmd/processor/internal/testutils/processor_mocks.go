package testutils

import (
	"context"
	"io"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/models"
)

type MockKafkaReader struct {
	Messages []kafka.Message
	Index    int
	Mu       sync.Mutex
	// Closed simulates a closed connection or end of stream
	Closed bool
	// Cycle replays the message list forever instead of draining it
	Cycle bool
}

func (m *MockKafkaReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}

	m.Mu.Lock()
	defer m.Mu.Unlock()

	if m.Closed {
		return kafka.Message{}, io.EOF
	}

	if m.Index >= len(m.Messages) {
		if m.Cycle && len(m.Messages) > 0 {
			m.Index = 0
		} else {
			// Returning DeadlineExceeded is a clean way to stop the read loop in tests
			return kafka.Message{}, context.DeadlineExceeded
		}
	}

	msg := m.Messages[m.Index]
	m.Index++
	return msg, nil
}

// Drained reports whether every message has been handed to the consumer.
func (m *MockKafkaReader) Drained() bool {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.Index >= len(m.Messages)
}

func (m *MockKafkaReader) Close() error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Closed = true
	return nil
}

// MockObservationStore simulates the Postgres write side
type MockObservationStore struct {
	Inserted []models.PriceObservation
	FailWith error
	Mu       sync.Mutex
}

func (m *MockObservationStore) InsertObservation(ctx context.Context, obs models.PriceObservation) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.Inserted = append(m.Inserted, obs)
	return nil
}

func (m *MockObservationStore) InsertedCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return len(m.Inserted)
}

// MockNotifier records refresh signals
type MockNotifier struct {
	Mu    sync.Mutex
	Count int
}

func (m *MockNotifier) NotifyRefresh(ctx context.Context) error {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Count++
	return nil
}

func (m *MockNotifier) NotifyCount() int {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	return m.Count
}

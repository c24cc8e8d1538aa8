package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ScarySuffer/Crypto-Price-Tracker-with-ETL-Dashboard/pkg/models"
)

const defaultRetryDelay = 3 * time.Second

type Options struct {
	APIBaseURL string // e.g. "http://localhost:8080"
	ChannelURL string // e.g. "ws://localhost:8080/ws"
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Subscriber keeps a ViewState in sync with the gateway: one REST bootstrap
// for the initial page state, then pushes over the websocket channel.
type Subscriber struct {
	apiBaseURL string
	channelURL string
	retryDelay time.Duration
	view       *ViewState
	logger     *zap.Logger

	httpClient *http.Client
	dialer     *websocket.Dialer
}

func New(opts Options) *Subscriber {
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Subscriber{
		apiBaseURL: opts.APIBaseURL,
		channelURL: opts.ChannelURL,
		retryDelay: delay,
		view:       NewViewState(),
		logger:     logger,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		dialer:     websocket.DefaultDialer,
	}
}

func (s *Subscriber) View() *ViewState { return s.view }

// Bootstrap loads the initial snapshot set over REST. The push channel never
// replays, so a fresh subscriber must fetch before (or right after) it
// connects.
func (s *Subscriber) Bootstrap(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBaseURL+"/api/crypto", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("initial fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("initial fetch: status %d: %s", resp.StatusCode, body)
	}

	var snapshots []models.PriceObservation
	if err := json.NewDecoder(resp.Body).Decode(&snapshots); err != nil {
		return fmt.Errorf("decode snapshot set: %w", err)
	}

	s.view.ApplySnapshot(snapshots)
	return nil
}

// Run maintains the push channel until the context is done. A lost connection
// is redialed after a fixed delay, indefinitely; close and error are treated
// identically. The view state survives reconnects, so no fresh REST fetch is
// needed afterwards.
func (s *Subscriber) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := s.dialer.DialContext(ctx, s.channelURL, nil)
		if err != nil {
			s.logger.Warn("channel dial failed, retrying",
				zap.String("url", s.channelURL), zap.Error(err))
			if !sleepCtx(ctx, s.retryDelay) {
				return
			}
			continue
		}

		s.logger.Info("channel connected", zap.String("url", s.channelURL))
		s.listen(ctx, conn)
		conn.Close()

		if !sleepCtx(ctx, s.retryDelay) {
			return
		}
	}
}

func (s *Subscriber) listen(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)

	// Unblock ReadMessage when the context ends
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("channel closed", zap.Error(err))
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			s.logger.Warn("ignoring malformed push", zap.Error(err))
			continue
		}
		if env.Kind != models.KindLatestUpdate {
			continue
		}

		s.view.ApplySnapshot(env.Data)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

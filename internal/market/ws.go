package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"betascope/internal/domain"
)

// LaunchStreamConfig configures the launch stream WebSocket client.
type LaunchStreamConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultLaunchStreamConfig returns default stream configuration.
func DefaultLaunchStreamConfig() LaunchStreamConfig {
	return LaunchStreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// launchEvent is the wire shape of a new-launch notification.
type launchEvent struct {
	Mint             string  `json:"mint"`
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	URI              string  `json:"uri"`
	MarketCapSol     float64 `json:"marketCapSol"`
	SolAmount        float64 `json:"solAmount"`
	InitialBuy       float64 `json:"initialBuy"`
	TxType           string  `json:"txType"`
}

// LaunchStream subscribes to the bonding-curve launch WebSocket feed and
// delivers each new launch as a Token on its channel. It reconnects with
// exponential backoff and resubscribes after every reconnect.
type LaunchStream struct {
	endpoint string
	config   LaunchStreamConfig
	logger   *log.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	out  chan domain.Token
	done chan struct{}
	wg   sync.WaitGroup
}

// NewLaunchStream connects to the endpoint and starts streaming.
func NewLaunchStream(ctx context.Context, endpoint string, config *LaunchStreamConfig, logger *log.Logger) (*LaunchStream, error) {
	cfg := DefaultLaunchStreamConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	s := &LaunchStream{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger,
		out:      make(chan domain.Token, 64),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// Launches returns the channel of streamed launch tokens. Closed on Close.
func (s *LaunchStream) Launches() <-chan domain.Token {
	return s.out
}

// Close shuts the stream down and closes the launch channel.
func (s *LaunchStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.out)
	return nil
}

// connect dials the endpoint and sends the subscription message.
func (s *LaunchStream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	sub := map[string]string{"method": "subscribeNewToken"}
	_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	return nil
}

// readLoop reads notifications and pushes tokens until shutdown.
func (s *LaunchStream) readLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn == nil {
			if !s.reconnect() {
				return
			}
			continue
		}

		_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.logger.Printf("launch stream read: %v", err)
			if !s.reconnect() {
				return
			}
			continue
		}

		var ev launchEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Mint == "" {
			continue // acks and unrelated frames
		}
		if !IsValidAddress(ev.Mint) {
			continue
		}

		now := time.Now().UnixMilli()
		token := domain.Token{
			Address:   ev.Mint,
			Symbol:    ev.Symbol,
			Name:      ev.Name,
			Source:    domain.FeedBondingCurvePre,
			CreatedAt: &now,
		}

		select {
		case s.out <- token:
		case <-s.done:
			return
		default:
			// Consumer is behind; drop rather than block the socket.
		}
	}
}

// reconnect re-dials with exponential backoff. Returns false on shutdown.
func (s *LaunchStream) reconnect() bool {
	s.connMu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()

	delay := s.config.ReconnectDelay
	for {
		select {
		case <-s.done:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := s.connect(ctx)
		cancel()
		if err == nil {
			return true
		}
		s.logger.Printf("launch stream reconnect: %v", err)

		delay *= 2
		if delay > s.config.MaxReconnectDelay {
			delay = s.config.MaxReconnectDelay
		}
	}
}

// pingLoop keeps the connection alive.
func (s *LaunchStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			conn := s.conn
			s.connMu.Unlock()
			if conn == nil {
				continue
			}
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout))
		}
	}
}

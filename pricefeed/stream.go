package pricefeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultCoinbaseWSURL = "wss://ws-feed.exchange.coinbase.com"

// Stream keeps a websocket subscription to the venue's ticker channel and
// caches the latest traded price. FairPrice serves from the cache, so the
// driver's blocking fetch degrades to a memory read; staleness is bounded
// by MaxAge.
type Stream struct {
	URL    string
	Ticker string
	MaxAge time.Duration
	Dialer *websocket.Dialer

	log *zap.Logger

	mu        sync.RWMutex
	lastPrice decimal.Decimal
	lastSeen  time.Time
}

// NewStream builds a streaming feed for ticker.
func NewStream(ticker string, log *zap.Logger) *Stream {
	if log == nil {
		log = zap.NewNop()
	}
	return &Stream{
		URL:    DefaultCoinbaseWSURL,
		Ticker: ticker,
		MaxAge: 10 * time.Second,
		Dialer: websocket.DefaultDialer,
		log:    log,
	}
}

// FairPrice returns the last streamed price, or ErrNoPrice when nothing
// fresh enough has arrived.
func (s *Stream) FairPrice(ctx context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSeen.IsZero() || time.Since(s.lastSeen) > s.MaxAge {
		return decimal.Zero, ErrNoPrice
	}
	return s.lastPrice, nil
}

// Run maintains the connection until ctx is canceled, reconnecting with
// exponential backoff.
func (s *Stream) Run(ctx context.Context) error {
	backoffCfg := backoff.NewExponentialBackOff()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, _, err := s.Dialer.DialContext(ctx, s.URL, nil)
		if err != nil {
			s.log.Warn("price stream dial failed", zap.Error(err))
			sleep := backoffCfg.NextBackOff()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
				continue
			}
		}

		backoffCfg.Reset()
		if err := s.readLoop(ctx, conn); err != nil {
			s.log.Warn("price stream read failed", zap.Error(err))
		}
		_ = conn.Close()

		sleep := backoffCfg.NextBackOff()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

type tickerMessage struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
}

func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) error {
	sub := map[string]interface{}{
		"type":        "subscribe",
		"product_ids": []string{s.Ticker},
		"channels":    []string{"ticker"},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var msg tickerMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type != "ticker" || msg.Price == "" {
			continue
		}
		price, err := decimal.NewFromString(msg.Price)
		if err != nil || !price.IsPositive() {
			continue
		}
		s.mu.Lock()
		s.lastPrice = price
		s.lastSeen = time.Now()
		s.mu.Unlock()
	}
}

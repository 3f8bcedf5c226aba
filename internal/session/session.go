package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"isuclicker-api/internal/model"
	"isuclicker-api/internal/numeric"
)

const maxMessageSize = 64 * 1024

// Game is the part of the game service a session drives.
type Game interface {
	AddIsu(ctx context.Context, room string, requestedTime int64, isu *big.Int) bool
	BuyItem(ctx context.Context, room string, requestedTime int64, itemID, countBought int) bool
	GetStatus(ctx context.Context, room string, t0 int64) ([]byte, error)
	Now(ctx context.Context) (int64, error)
}

// Config tunes a session.
type Config struct {
	PushInterval     time.Duration
	ActionBatchDelay time.Duration
	WriteTimeout     time.Duration

	// ActionRate is the sustained actions per second a session may send.
	// 0 disables limiting.
	ActionRate  float64
	ActionBurst int
}

func (c *Config) setDefaults() {
	if c.PushInterval <= 0 {
		c.PushInterval = 500 * time.Millisecond
	}
	if c.ActionBatchDelay < 0 {
		c.ActionBatchDelay = 0
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.ActionBurst <= 0 {
		c.ActionBurst = 20
	}
}

// Session streams the status of one room to one websocket client and
// applies the client's actions. Run is the only writer on conn.
type Session struct {
	id      string
	room    string
	conn    *websocket.Conn
	game    Game
	decoder *Decoder
	limiter *rate.Limiter
	cfg     Config
}

// New creates a session for an upgraded connection.
func New(id, room string, conn *websocket.Conn, game Game, decoder *Decoder, cfg Config) *Session {
	cfg.setDefaults()
	s := &Session{
		id:      id,
		room:    room,
		conn:    conn,
		game:    game,
		decoder: decoder,
		cfg:     cfg,
	}
	if cfg.ActionRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.ActionRate), cfg.ActionBurst)
	}
	return s
}

// Run serves the session until the connection ends. A clean close returns
// nil; a protocol violation closes the connection with ClosePolicyViolation.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inbound := make(chan []byte)
	readErr := make(chan error, 1)
	go s.readLoop(ctx, inbound, readErr)

	if err := s.pushStatus(ctx, 0); err != nil {
		return err
	}
	lastPush := time.Now()

	for {
		wait := s.cfg.PushInterval - time.Since(lastPush)
		if wait <= 0 {
			if err := s.pushStatus(ctx, 0); err != nil {
				return err
			}
			lastPush = time.Now()
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case err := <-readErr:
			timer.Stop()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			return err

		case msg := <-inbound:
			timer.Stop()
			pushed, err := s.handle(ctx, msg)
			if err != nil {
				if errors.Is(err, ErrProtocolViolation) {
					s.closeWith(websocket.ClosePolicyViolation, "protocol violation")
				}
				return err
			}
			if pushed {
				lastPush = time.Now()
			}

		case <-timer.C:
		}
	}
}

func (s *Session) readLoop(ctx context.Context, inbound chan<- []byte, readErr chan<- error) {
	s.conn.SetReadLimit(maxMessageSize)
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			readErr <- err
			return
		}
		select {
		case inbound <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// handle applies one action and reports whether a status was pushed.
func (s *Session) handle(ctx context.Context, msg []byte) (bool, error) {
	req, err := s.decoder.Decode(msg)
	if err != nil {
		log.Printf("[Session] %s room=%s: %v", s.id, s.room, err)
		return false, err
	}

	success := false
	switch {
	case s.limiter != nil && !s.limiter.Allow():
		log.Printf("[Session] %s room=%s: request %d rate limited", s.id, s.room, req.RequestID)

	case req.Action == model.ActionAddIsu:
		isu, err := numeric.ParseInt(req.Isu)
		if err != nil {
			return false, fmt.Errorf("%w: isu: %v", ErrProtocolViolation, err)
		}
		success = s.game.AddIsu(ctx, s.room, req.Time, isu)

	case req.Action == model.ActionBuyItem:
		success = s.game.BuyItem(ctx, s.room, req.Time, req.ItemID, req.CountBought)

	default:
		return false, fmt.Errorf("%w: unknown action %q", ErrProtocolViolation, req.Action)
	}

	pushed := false
	if success {
		after, err := s.game.Now(ctx)
		if err != nil {
			return false, err
		}
		if s.cfg.ActionBatchDelay > 0 {
			select {
			case <-time.After(s.cfg.ActionBatchDelay):
			case <-ctx.Done():
				return false, nil
			}
		}
		// A snapshot committed in the same millisecond may predate the
		// mutation, so only a later commit proves it is included.
		if err := s.pushStatus(ctx, after+1); err != nil {
			return false, err
		}
		pushed = true
	}

	return pushed, s.writeJSON(model.GameResponse{RequestID: req.RequestID, IsSuccess: success})
}

func (s *Session) pushStatus(ctx context.Context, t0 int64) error {
	body, err := s.game.GetStatus(ctx, s.room, t0)
	if err != nil {
		return fmt.Errorf("status of %s: %w", s.room, err)
	}
	return s.write(body)
}

func (s *Session) writeJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.write(b)
}

func (s *Session) write(b []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, b)
}

func (s *Session) closeWith(code int, reason string) {
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

package push

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"fleet-console/internal/reconciler"

	"github.com/gorilla/websocket"
)

const defaultHandshakeTimeout = 10 * time.Second

// Subscriber maintains a long-lived websocket subscription to the backend's
// SOS alert topic. On socket error or close it waits a fixed delay and
// redials, indefinitely; there is no retry cap. Close stops the loop and
// abandons any pending reconnect timer.
type Subscriber struct {
	url            string
	reconnectDelay time.Duration
	dialer         *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// NewSubscriber creates a subscriber for the given websocket URL.
func NewSubscriber(url string, reconnectDelay time.Duration) *Subscriber {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &Subscriber{
		url:            url,
		reconnectDelay: reconnectDelay,
		dialer: &websocket.Dialer{
			HandshakeTimeout: defaultHandshakeTimeout,
		},
	}
}

// Subscribe starts the connection loop. Messages and state transitions are
// delivered from a single goroutine, so handlers never race each other.
func (s *Subscriber) Subscribe(onMessage func([]byte), onState func(reconciler.ConnectionState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("subscriber already closed")
	}
	if s.done != nil {
		return errors.New("subscriber already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, onMessage, onState)
	return nil
}

func (s *Subscriber) run(ctx context.Context, onMessage func([]byte), onState func(reconciler.ConnectionState)) {
	defer close(s.done)

	for {
		onState(reconciler.StateConnecting)

		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			onState(reconciler.StateDisconnected)
			if ctx.Err() != nil {
				return
			}
			log.Printf("SOS push dial failed: %v (retrying in %v)", err, s.reconnectDelay)
			if !s.wait(ctx) {
				return
			}
			continue
		}

		s.setConn(conn)
		onState(reconciler.StateConnected)

		s.readLoop(conn, onMessage)

		s.setConn(nil)
		conn.Close()
		onState(reconciler.StateDisconnected)

		if ctx.Err() != nil {
			return
		}
		log.Printf("SOS push connection lost (reconnecting in %v)", s.reconnectDelay)
		if !s.wait(ctx) {
			return
		}
	}
}

// readLoop delivers messages until the connection breaks.
func (s *Subscriber) readLoop(conn *websocket.Conn, onMessage func([]byte)) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("SOS push read error: %v", err)
			}
			return
		}
		onMessage(message)
	}
}

// wait sleeps for the reconnect delay. Returns false when the subscriber was
// torn down while waiting.
func (s *Subscriber) wait(ctx context.Context) bool {
	timer := time.NewTimer(s.reconnectDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Subscriber) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

// Close tears down the subscription: cancels the loop, closes any live
// connection to unblock the reader, and waits for the loop to exit.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.cancel
	conn := s.conn
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
	if done != nil {
		<-done
	}
	return nil
}

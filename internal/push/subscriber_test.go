package push

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fleet-console/internal/reconciler"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateRecorder struct {
	mu     sync.Mutex
	states []reconciler.ConnectionState
}

func (r *stateRecorder) record(state reconciler.ConnectionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *stateRecorder) snapshot() []reconciler.ConnectionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]reconciler.ConnectionState, len(r.states))
	copy(out, r.states)
	return out
}

func (r *stateRecorder) waitFor(t *testing.T, want reconciler.ConnectionState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, s := range r.snapshot() {
			if s == want {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state %s never reached; saw %v", want, r.snapshot())
}

func newAlertServer(t *testing.T, payloads chan []byte) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for payload := range payloads {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSubscriberDeliversMessages(t *testing.T) {
	payloads := make(chan []byte, 1)
	server := newAlertServer(t, payloads)
	defer server.Close()
	defer close(payloads)

	received := make(chan []byte, 1)
	recorder := &stateRecorder{}

	sub := NewSubscriber(wsURL(server), 100*time.Millisecond)
	err := sub.Subscribe(func(msg []byte) { received <- msg }, recorder.record)
	require.NoError(t, err)
	defer sub.Close()

	recorder.waitFor(t, reconciler.StateConnected)

	payloads <- []byte(`{"id":"A1","driverId":"D1","type":"SOS_BUTTON"}`)

	select {
	case msg := <-received:
		assert.Contains(t, string(msg), `"A1"`)
	case <-time.After(2 * time.Second):
		t.Fatal("message never delivered")
	}
}

func TestSubscriberReconnectsAfterServerClose(t *testing.T) {
	payloads := make(chan []byte)
	server := newAlertServer(t, payloads)
	defer server.Close()

	recorder := &stateRecorder{}
	sub := NewSubscriber(wsURL(server), 50*time.Millisecond)
	require.NoError(t, sub.Subscribe(func([]byte) {}, recorder.record))
	defer sub.Close()

	recorder.waitFor(t, reconciler.StateConnected)

	// dropping the payload channel makes the handler return, closing the
	// server side of every connection
	close(payloads)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		states := recorder.snapshot()
		connects := 0
		for _, s := range states {
			if s == reconciler.StateConnected {
				connects++
			}
		}
		if connects >= 2 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscriber never reconnected; states: %v", recorder.snapshot())
}

func TestSubscriberRetriesWhenServerUnavailable(t *testing.T) {
	recorder := &stateRecorder{}

	// nothing listens here
	sub := NewSubscriber("ws://127.0.0.1:1/ws", 30*time.Millisecond)
	require.NoError(t, sub.Subscribe(func([]byte) {}, recorder.record))
	defer sub.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		attempts := 0
		for _, s := range recorder.snapshot() {
			if s == reconciler.StateConnecting {
				attempts++
			}
		}
		if attempts >= 3 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected repeated connection attempts; states: %v", recorder.snapshot())
}

func TestSubscriberCloseStopsReconnecting(t *testing.T) {
	recorder := &stateRecorder{}

	sub := NewSubscriber("ws://127.0.0.1:1/ws", 20*time.Millisecond)
	require.NoError(t, sub.Subscribe(func([]byte) {}, recorder.record))

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, sub.Close())

	settled := len(recorder.snapshot())
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, len(recorder.snapshot()), "no state changes after Close")
}

func TestSubscriberCloseIsIdempotent(t *testing.T) {
	sub := NewSubscriber("ws://127.0.0.1:1/ws", 20*time.Millisecond)
	require.NoError(t, sub.Subscribe(func([]byte) {}, func(reconciler.ConnectionState) {}))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
}

func TestSubscribeTwiceFails(t *testing.T) {
	sub := NewSubscriber("ws://127.0.0.1:1/ws", 20*time.Millisecond)
	require.NoError(t, sub.Subscribe(func([]byte) {}, func(reconciler.ConnectionState) {}))
	defer sub.Close()

	err := sub.Subscribe(func([]byte) {}, func(reconciler.ConnectionState) {})
	assert.Error(t, err)
}

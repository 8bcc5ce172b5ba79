package userstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/binancemargin/exchanges/binance"
)

const testListenKey = binance.ListenKey("pqia91ma19a5s61cv6a81va65sdf19v8a65a1a5s61cv6a81va65sdf19v8a65a1")

// newStreamServer serves the user data stream for testListenKey and runs
// script on each upgraded connection
func newStreamServer(t *testing.T, script func(conn *websocket.Conn)) string {
	t.Helper()
	var upgrader websocket.Upgrader
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/"+string(testListenKey) {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		script(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

// waitUntilClosed reads until the peer goes away
func waitUntilClosed(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func collect(t *testing.T, s *Stream) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			require.FailNow(t, "timed out waiting for the stream to end")
		}
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	for _, bad := range []string{"https://stream.binance.com/ws", "ws://", "::"} {
		_, err := New(bad)
		assert.ErrorIs(t, err, errInvalidStreamURL, bad)
	}
	c, err := New("wss://stream.binance.com:9443/ws/", WithEventBuffer(1), WithVerbose(true))
	require.NoError(t, err)
	assert.Equal(t, "wss://stream.binance.com:9443/ws", c.streamURL)
	assert.Equal(t, 1, c.buffer)
	assert.True(t, c.verbose)
}

func TestConnectDeliversEventsInOrder(t *testing.T) {
	t.Parallel()
	wsURL := newStreamServer(t, func(conn *websocket.Conn) {
		for _, msg := range []string{filledOrderReport, "not json", balanceUpdate, accountPosition, listenKeyExpired} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				t.Errorf("write: %v", err)
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		waitUntilClosed(conn)
	})

	c, err := New(wsURL)
	require.NoError(t, err)
	s, err := c.Connect(t.Context(), testListenKey)
	require.NoError(t, err)

	events := collect(t, s)
	require.Len(t, events, 4, "undecodable messages must be skipped")
	assert.IsType(t, &ExecutionReport{}, events[0])
	assert.IsType(t, &BalanceUpdate{}, events[1])
	assert.IsType(t, &AccountPosition{}, events[2])
	assert.IsType(t, &ListenKeyExpired{}, events[3])
	assert.True(t, websocket.IsCloseError(s.Err(), websocket.CloseNormalClosure), "remote close must be reported, got %v", s.Err())
	assert.NoError(t, s.Close(), "closing an ended stream must not fail")
}

func TestStreamCloseLocally(t *testing.T) {
	t.Parallel()
	wsURL := newStreamServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(balanceUpdate))
		waitUntilClosed(conn)
	})
	c, err := New(wsURL, WithEventBuffer(0))
	require.NoError(t, err)
	s, err := c.Connect(t.Context(), testListenKey)
	require.NoError(t, err)

	select {
	case ev := <-s.Events():
		assert.Equal(t, EventBalanceUpdate, ev.Kind())
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no event received")
	}
	require.NoError(t, s.Close())
	assert.Empty(t, collect(t, s))
	assert.NoError(t, s.Err())
}

func TestStreamClosedByContext(t *testing.T) {
	t.Parallel()
	wsURL := newStreamServer(t, waitUntilClosed)
	c, err := New(wsURL)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(t.Context())
	s, err := c.Connect(ctx, testListenKey)
	require.NoError(t, err)
	cancel()
	assert.Empty(t, collect(t, s))
	assert.NoError(t, s.Err())
}

func TestConnectErrors(t *testing.T) {
	t.Parallel()
	wsURL := newStreamServer(t, waitUntilClosed)
	c, err := New(wsURL)
	require.NoError(t, err)

	_, err = c.Connect(t.Context(), "")
	assert.ErrorIs(t, err, errListenKeyRequired)

	_, err = c.Connect(t.Context(), "unknown")
	assert.ErrorIs(t, err, errDial)
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
}

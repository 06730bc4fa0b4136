package sync

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, hub *Hub, query string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "welcome")

	require.Eventually(t, func() bool { return hub.Stats().WSClients > 0 }, time.Second, 10*time.Millisecond)
	return ws
}

func TestHub_PublishToWebSocket(t *testing.T) {
	hub := NewHub()
	ws := dialWS(t, hub, "")

	hub.Publish(DeckEvent{Type: DeckSaved, UserID: "u1", DeckID: "d1", Format: "modern", TotalCards: 60, IsValid: true, At: time.Now()})

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)

	var ev DeckEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, DeckSaved, ev.Type)
	assert.Equal(t, "d1", ev.DeckID)
	assert.Equal(t, 60, ev.TotalCards)
	assert.True(t, ev.IsValid)
}

func TestHub_PublishKeepsOrder(t *testing.T) {
	hub := NewHub()
	t.Cleanup(hub.Close)
	ws := dialWS(t, hub, "?user_id=u1")

	const n = 200
	for i := 0; i < n; i++ {
		hub.Publish(DeckEvent{Type: DeckSaved, UserID: "u1", DeckID: fmt.Sprintf("d%d", i), TotalCards: i + 1})
	}

	for i := 0; i < n; i++ {
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := ws.ReadMessage()
		require.NoError(t, err)

		var ev DeckEvent
		require.NoError(t, json.Unmarshal(msg, &ev))
		require.Equal(t, fmt.Sprintf("d%d", i), ev.DeckID)
	}
}

func TestHub_PublishAfterClose(t *testing.T) {
	hub := NewHub()
	hub.Close()
	hub.Close()
	assert.NotPanics(t, func() { hub.Publish(DeckEvent{Type: DeckSaved, UserID: "u1"}) })
}

func TestDeckEvent_InvalidIsExplicit(t *testing.T) {
	b, err := json.Marshal(DeckEvent{Type: DeckSaved, UserID: "u1", DeckID: "d1", IsValid: false})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"is_valid":false`)
}

func TestHub_WebSocketUserFilter(t *testing.T) {
	hub := NewHub()
	ws := dialWS(t, hub, "?user_id=u2")

	hub.send("u1", DeckEvent{Type: DeckSaved, UserID: "u1", DeckID: "other"})
	hub.send("u2", DeckEvent{Type: DeckDeleted, UserID: "u2", DeckID: "mine"})

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)

	var ev DeckEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "mine", ev.DeckID)
	assert.Equal(t, DeckDeleted, ev.Type)
}

func TestServer_TCPSubscribe(t *testing.T) {
	hub := NewHub()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := NewServer(ln.Addr().String(), hub)
	go srv.Serve(ln)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	rd := bufio.NewReader(conn)
	line, err := rd.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"welcome"`)

	_, err = conn.Write([]byte("subscribe u9\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		for _, f := range hub.clients {
			if f == "u9" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	hub.send("u1", DeckEvent{Type: DeckSaved, UserID: "u1", DeckID: "skip"})
	hub.send("u9", DeckEvent{Type: DeckSaved, UserID: "u9", DeckID: "keep"})

	line, err = rd.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"deck_id":"keep"`)
}

func TestMatches(t *testing.T) {
	assert.True(t, matches("", "u1"))
	assert.True(t, matches("u1", ""))
	assert.True(t, matches("u1", "u1"))
	assert.False(t, matches("u1", "u2"))
}

package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/charlesng35/sponsorpass/internal/state"
)

type stubSource struct {
	mu   sync.Mutex
	view state.View
	subs []func(state.View)
}

func (s *stubSource) View() state.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *stubSource) Subscribe(fn func(state.View)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs[idx] = nil
	}
}

func (s *stubSource) publish(v state.View) {
	s.mu.Lock()
	s.view = v
	subs := append([]func(state.View){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range subs {
		if fn != nil {
			fn(v)
		}
	}
}

type envelope struct {
	Stream string          `json:"stream"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg envelope
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	return websocket.DefaultDialer.Dial(url, header)
}

func TestHubStreamsDashboardViews(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub()
	source := &stubSource{view: state.View{Version: 1, Greeting: "Jane"}}
	detach := AttachDashboard(hub, source)
	defer detach()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve([]string{StreamDashboardView}, w, r)
	}))
	defer srv.Close()

	conn, _, err := dial(t, srv, nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readEnvelope(t, conn)
	require.Equal(t, StreamDashboardView, msg.Stream)
	require.Equal(t, EventSnapshot, msg.Event)
	var view state.View
	require.NoError(t, json.Unmarshal(msg.Data, &view))
	require.Equal(t, "Jane", view.Greeting)
	require.Equal(t, 1, hub.Subscribers(StreamDashboardView))

	source.publish(state.View{Version: 2, Greeting: "Jane", Page: 3})
	msg = readEnvelope(t, conn)
	require.Equal(t, EventUpdated, msg.Event)
	require.NoError(t, json.Unmarshal(msg.Data, &view))
	require.Equal(t, uint64(2), view.Version)
	require.Equal(t, 3, view.Page)

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "ping"}))
	msg = readEnvelope(t, conn)
	require.Equal(t, EventPong, msg.Event)

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "unsubscribe", "streams": []string{"Dashboard.View"}}))
	require.Eventually(t, func() bool {
		return hub.Subscribers(StreamDashboardView) == 0
	}, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve([]string{StreamDashboardView}, w, r)
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	conn, resp, err := dial(t, srv, header)
	if conn != nil {
		conn.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Zero(t, hub.Subscribers(StreamDashboardView))
}

func TestHostHelpers(t *testing.T) {
	require.Equal(t, "example.com", hostWithoutPort("https://example.com:8443"))
	require.Equal(t, "localhost", hostWithoutPort("localhost:8000"))
	require.True(t, isLoopback("127.0.0.1"))
	require.True(t, isLoopback("LOCALHOST"))
	require.False(t, isLoopback("example.com"))
	require.Equal(t, []string{"dashboard.view"}, uniqueStreams([]string{" Dashboard.View", "dashboard.view", ""}))
}

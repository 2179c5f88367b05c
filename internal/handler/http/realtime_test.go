package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linkpro-analytics/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func startRealtimeServer(t *testing.T) (*testServer, string) {
	t.Helper()

	ts := setupTestRouter()
	srv := httptest.NewServer(ts.router)
	t.Cleanup(srv.Close)

	return ts, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestRealtime_PublishReachesSubscriber(t *testing.T) {
	// Arrange
	ts, base := startRealtimeServer(t)
	ts.profiles.On("GetByID", mock.Anything, int64(1)).Return(&domain.Profile{ID: 1, Username: "creator"}, nil)
	conn := dial(t, base+"/ws/analytics/1")
	require.Eventually(t, func() bool { return ts.hub.SubscriberCount(1) == 1 }, 2*time.Second, 10*time.Millisecond)

	linkID := int64(5)

	// Act
	ts.hub.Publish(1, domain.EventNotification{
		Type:      domain.EventTypeClick,
		ProfileID: 1,
		LinkID:    &linkID,
		EventID:   77,
		Timestamp: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	})

	// Assert
	msg := readJSON(t, conn)
	assert.Equal(t, "click", msg["type"])
	assert.Equal(t, float64(5), msg["link_id"])
	assert.Equal(t, float64(77), msg["event_id"])
}

func TestRealtime_RelaysClientMessages(t *testing.T) {
	// Arrange
	ts, base := startRealtimeServer(t)
	ts.profiles.On("GetByID", mock.Anything, int64(2)).Return(&domain.Profile{ID: 2}, nil)
	sender := dial(t, base+"/ws/analytics/2")
	receiver := dial(t, base+"/ws/analytics/2")
	require.Eventually(t, func() bool { return ts.hub.SubscriberCount(2) == 2 }, 2*time.Second, 10*time.Millisecond)

	// Act
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte("not json")))
	payload, err := json.Marshal(map[string]string{"type": "dashboard_opened"})
	require.NoError(t, err)
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, payload))

	// Assert
	assert.Equal(t, "dashboard_opened", readJSON(t, receiver)["type"])
}

func TestRealtime_DisconnectUnsubscribes(t *testing.T) {
	ts, base := startRealtimeServer(t)
	ts.profiles.On("GetByID", mock.Anything, int64(3)).Return(&domain.Profile{ID: 3}, nil)
	conn := dial(t, base+"/ws/analytics/3")
	require.Eventually(t, func() bool { return ts.hub.SubscriberCount(3) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return ts.hub.SubscriberCount(3) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRealtime_UnknownProfile(t *testing.T) {
	// Arrange
	ts, base := startRealtimeServer(t)
	ts.profiles.On("GetByID", mock.Anything, int64(404)).Return(nil, domain.ErrProfileNotFound)

	// Act
	_, resp, err := websocket.DefaultDialer.Dial(base+"/ws/analytics/404", nil)

	// Assert
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 0, ts.hub.SubscriberCount(404))
}

func TestRealtime_RejectsForeignOrigin(t *testing.T) {
	// Arrange
	ts := setupTestRouter()
	ts.profiles.On("GetByID", mock.Anything, int64(1)).Return(&domain.Profile{ID: 1}, nil)
	ts.router = NewRouter(RouterConfig{
		Handler:  NewHandler(ts.analytics, ts.tracking, testLogger()),
		System:   NewSystemHandler("1.0.0", "test", nil, nil, testLogger()),
		Realtime: NewRealtimeHandler(ts.hub, ts.profiles, "https://dashboard.example.com", testLogger()),
	})
	srv := httptest.NewServer(ts.router)
	defer srv.Close()
	header := http.Header{"Origin": []string{"https://evil.example.com"}}

	// Act
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/analytics/1", header)

	// Assert
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

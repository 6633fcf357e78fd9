package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	models "github.com/tsunagari/backend/internal/models/account"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// newTestSocket upgrades one connection against an httptest server and
// returns the server side, the one the hub writes to.
func newTestSocket(t *testing.T) *websocket.Conn {
	t.Helper()
	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientConn.Close() })

	select {
	case conn := <-connCh:
		return conn
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for websocket upgrade")
		return nil
	}
}

// awaitSendClosed drains the client's send channel until it closes.
func awaitSendClosed(t *testing.T, client *Client) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-client.Send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("send channel not closed after unregister")
		}
	}
}

func TestUnregisterDuringUpdateBurst(t *testing.T) {
	fx := newSessionFixture(t, "alice")
	fx.profiles.Put(&models.UserProfile{UID: "alice"})

	hub := NewHub(zap.NewNop().Sugar(), time.Minute)
	conn := newTestSocket(t)

	fx.session.Start(context.Background())
	client := hub.Register(conn, fx.session)

	// Keep updates flowing while the client disconnects; delivery into a
	// torn-down client must be dropped, never crash.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			fx.session.emit(Update{Type: "feed"})
		}
	}()

	time.Sleep(time.Millisecond)
	hub.Unregister(client)
	wg.Wait()

	awaitSendClosed(t, client)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	fx := newSessionFixture(t, "alice")
	fx.profiles.Put(&models.UserProfile{UID: "alice"})

	hub := NewHub(zap.NewNop().Sugar(), time.Minute)
	conn := newTestSocket(t)

	fx.session.Start(context.Background())
	client := hub.Register(conn, fx.session)

	hub.Unregister(client)
	hub.Unregister(client)

	awaitSendClosed(t, client)
}

func TestSweepIdleClosesStaleClients(t *testing.T) {
	fx := newSessionFixture(t, "alice")
	fx.profiles.Put(&models.UserProfile{UID: "alice"})

	hub := NewHub(zap.NewNop().Sugar(), 10*time.Millisecond)
	conn := newTestSocket(t)

	fx.session.Start(context.Background())
	client := hub.Register(conn, fx.session)

	time.Sleep(30 * time.Millisecond)
	hub.SweepIdle()

	awaitSendClosed(t, client)
}

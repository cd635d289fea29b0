package feed_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/gunfeed/internal/feed"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newServer(t *testing.T) (*feed.Hub, *httptest.Server) {
	t.Helper()
	hub := feed.NewHub(time.Second, zap.NewNop())
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func TestHub_BroadcastReachesViewer(t *testing.T) {
	hub, srv := newServer(t)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	hub.Broadcast([]byte{1, 2, 3})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	typ, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, typ)
	assert.Equal(t, []byte{1, 2, 3}, payload)
}

func TestHub_OnJoinRunsPerViewer(t *testing.T) {
	hub, srv := newServer(t)
	var joins atomic.Int32
	hub.OnJoin(func() {
		joins.Add(1)
		hub.Broadcast([]byte("hello"))
	})

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(payload))
	assert.Equal(t, int32(1), joins.Load())
}

func TestHub_RemovesDisconnectedViewer(t *testing.T) {
	hub, srv := newServer(t)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.NotPanics(t, func() { hub.Broadcast([]byte{9}) })
}

func TestHub_BroadcastWithoutViewers(t *testing.T) {
	hub := feed.NewHub(0, zap.NewNop())
	hub.Broadcast([]byte{1})
	assert.Equal(t, uint64(0), hub.Dropped())
	assert.Panics(t, func() { feed.NewHub(0, nil) })
}

func TestSubscribe_DeliversPayloadsUntilCancelled(t *testing.T) {
	hub, srv := newServer(t)

	var (
		mu  sync.Mutex
		got [][]byte
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- feed.Subscribe(ctx, wsURL(srv), func(p []byte) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, p)
		})
	}()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 5*time.Millisecond)
	hub.Broadcast([]byte{1})
	hub.Broadcast([]byte{2})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Subscribe did not return after cancel")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]byte{{1}, {2}}, got)
}

func TestSubscribe_DialError(t *testing.T) {
	err := feed.Subscribe(context.Background(), "ws://127.0.0.1:1/feed", func([]byte) {})
	assert.Error(t, err)
}

func TestFollow_ResubscribesAfterServerClose(t *testing.T) {
	hub, srv := newServer(t)
	hub.OnJoin(func() { hub.Broadcast([]byte("sync")) })

	var (
		connects atomic.Int32
		payloads atomic.Int32
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- feed.Follow(ctx, wsURL(srv), feed.Retry{Initial: 10 * time.Millisecond, Max: 50 * time.Millisecond},
			zap.NewNop(),
			func() { connects.Add(1) },
			func([]byte) { payloads.Add(1) },
		)
	}()

	require.Eventually(t, func() bool { return connects.Load() == 1 }, time.Second, 5*time.Millisecond)
	hub.Close()
	require.Eventually(t, func() bool { return connects.Load() == 2 }, 2*time.Second, 5*time.Millisecond,
		"viewer must resubscribe after a normal close")
	assert.GreaterOrEqual(t, payloads.Load(), int32(2))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}

func TestFollow_ReturnsOnCancelWhileRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- feed.Follow(ctx, "ws://127.0.0.1:1/feed", feed.Retry{Initial: time.Hour, Max: time.Hour},
			zap.NewNop(), nil, func([]byte) {})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}

func TestFollow_Preconditions(t *testing.T) {
	ctx := context.Background()
	assert.Panics(t, func() {
		_ = feed.Follow(ctx, "ws://x", feed.Retry{}, zap.NewNop(), nil, func([]byte) {})
	})
	assert.Panics(t, func() {
		_ = feed.Follow(ctx, "ws://x", feed.Retry{Initial: time.Second, Max: time.Millisecond}, zap.NewNop(), nil, func([]byte) {})
	})
	assert.Panics(t, func() {
		_ = feed.Follow(ctx, "ws://x", feed.Retry{Initial: time.Second, Max: time.Second}, zap.NewNop(), nil, nil)
	})
}

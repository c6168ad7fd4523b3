package inspector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/spatial/internal/core/component"
	"github.com/zeusync/spatial/internal/core/events/bus"
	"github.com/zeusync/spatial/internal/core/observability/log"
	"github.com/zeusync/spatial/internal/core/simulation"
	"github.com/zeusync/spatial/internal/core/systems/drag"
	"github.com/zeusync/spatial/internal/core/systems/physics"
)

type received struct {
	Type  string          `json:"type"`
	Frame uint64          `json:"frame"`
	Data  json.RawMessage `json:"data"`
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func snapshot(frame uint64, x float64) simulation.Snapshot {
	return simulation.Snapshot{
		Session: "test",
		Frame:   frame,
		Objects: []simulation.ObjectSnapshot{{ID: 1, Name: "crate", Transform: component.At(x, 0)}},
	}
}

func TestServer_StreamsSnapshotsAndSkipsUnchanged(t *testing.T) {
	srv := New(nil, log.Nop(), Options{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	require.NoError(t, srv.PublishSnapshot(snapshot(1, 0)))

	conn := dial(t, ts)
	first := read(t, conn)
	assert.Equal(t, TypeSnapshot, first.Type)
	assert.Equal(t, uint64(1), first.Frame)

	// Same world, new frame number: not resent.
	require.NoError(t, srv.PublishSnapshot(snapshot(2, 0)))
	require.NoError(t, srv.PublishSnapshot(snapshot(3, 10)))

	next := read(t, conn)
	assert.Equal(t, uint64(3), next.Frame)
	var snap simulation.Snapshot
	require.NoError(t, json.Unmarshal(next.Data, &snap))
	require.Len(t, snap.Objects, 1)
	assert.Equal(t, 10.0, snap.Objects[0].Transform.X)
	assert.Equal(t, 1, srv.Clients())
}

func TestServer_ForwardsDropsFromBus(t *testing.T) {
	b := bus.New()
	srv := New(b, log.Nop(), Options{})
	require.NoError(t, srv.WatchDrops())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	require.NoError(t, srv.PublishSnapshot(snapshot(1, 0)))
	conn := dial(t, ts)
	read(t, conn)

	d := drag.Drop{Dropped: 1, Target: 2, Position: physics.V(3, 4), Frame: 7}
	require.NoError(t, b.PublishToTopic(simulation.TopicDrag, bus.NewEvent(simulation.EventDrop, "drops", 7, d)))

	msg := read(t, conn)
	assert.Equal(t, TypeDrop, msg.Type)
	var got drag.Drop
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, d, got)
}

func TestServer_SnapshotAndTopicsEndpoints(t *testing.T) {
	b := bus.New()
	require.NoError(t, b.CreateTopic(simulation.TopicDrag, bus.TopicConfig{Description: "finished drops"}))
	srv := New(b, log.Nop(), Options{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/snapshot")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, srv.PublishSnapshot(snapshot(4, 0)))
	resp, err = http.Get(ts.URL + "/snapshot")
	require.NoError(t, err)
	var msg received
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	resp.Body.Close()
	assert.Equal(t, uint64(4), msg.Frame)

	resp, err = http.Get(ts.URL + "/topics")
	require.NoError(t, err)
	var topics []bus.TopicInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&topics))
	resp.Body.Close()
	require.NotEmpty(t, topics)
	var found bool
	for _, ti := range topics {
		if ti.Name == simulation.TopicDrag {
			found = true
			assert.Equal(t, "finished drops", ti.Description)
		}
	}
	assert.True(t, found)
}

func TestServer_RejectsPastMaxClients(t *testing.T) {
	srv := New(nil, log.Nop(), Options{MaxClients: 1})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	require.NoError(t, srv.PublishSnapshot(snapshot(1, 0)))
	first := dial(t, ts)
	read(t, first)

	second := dial(t, ts)
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := second.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseTryAgainLater))
}

func TestServer_StartStop(t *testing.T) {
	srv := New(nil, nil, Options{})
	require.ErrorIs(t, srv.Stop(context.Background()), ErrServerNotRunning)

	require.NoError(t, srv.Start("127.0.0.1:0"))
	require.ErrorIs(t, srv.Start("127.0.0.1:0"), ErrServerAlreadyRunning)
	addr := srv.Addr()
	require.NotEmpty(t, addr)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return srv.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.Empty(t, srv.Addr())
	assert.Zero(t, srv.Clients())
}

package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/motion/internal/geom"
	"github.com/inamate/motion/internal/scene"
	"github.com/inamate/motion/internal/style"
	"github.com/inamate/motion/internal/vobject"
)

func testFrame(n int) scene.Frame {
	sq := vobject.Square(20).
		Shift(geom.Pt(50, 50), false).
		SetFill(style.Solid(style.Black), false).
		SetIndex(1, false)
	return scene.Frame{
		Number:      n,
		Width:       100,
		Height:      100,
		Objects:     []vobject.VectorObject{sq},
		Background:  style.Solid(style.White),
		TopLeft:     geom.Pt(0, 0),
		BottomRight: geom.Pt(100, 100),
	}
}

func startHub(t *testing.T) (*Hub, *httptest.Server, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeSession(w, r, "s1", nil)
	}))
	t.Cleanup(srv.Close)
	return hub, srv, ctx
}

func dial(t *testing.T, ctx context.Context, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	return conn
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestViewerReceivesLatestThenLiveFrames(t *testing.T) {
	hub, srv, ctx := startHub(t)
	require.NoError(t, hub.Publish("s1", testFrame(0)))

	conn := dial(t, ctx, srv)
	defer conn.CloseNow()

	welcome := read(t, ctx, conn)
	assert.Equal(t, TypeWelcome, welcome.Type)

	latest := read(t, ctx, conn)
	require.Equal(t, TypeFrame, latest.Type)
	var fp FramePayload
	require.NoError(t, json.Unmarshal(latest.Payload, &fp))
	assert.Equal(t, 0, fp.Number)
	assert.Equal(t, 100, fp.Width)
	require.Len(t, fp.Commands, 2)
	assert.Equal(t, "1", fp.Commands[1].ObjectID)

	viewers := read(t, ctx, conn)
	assert.Equal(t, TypeViewers, viewers.Type)
	assert.Equal(t, 1, hub.Viewers("s1"))

	require.NoError(t, hub.Renderer("s1").RenderFrame(ctx, testFrame(1)))
	live := read(t, ctx, conn)
	assert.Equal(t, TypeFrame, live.Type)
	assert.Equal(t, int64(2), live.Seq)
}

func TestHitTestAgainstLatestFrame(t *testing.T) {
	hub, srv, ctx := startHub(t)
	require.NoError(t, hub.Publish("s1", testFrame(0)))

	conn := dial(t, ctx, srv)
	defer conn.CloseNow()
	for range 3 { // welcome, frame, viewers
		read(t, ctx, conn)
	}

	for _, tc := range []struct {
		x, y float64
		want string
	}{
		{50, 50, "1"},
		{5, 5, ""},
	} {
		payload, _ := json.Marshal(HitPayload{X: tc.x, Y: tc.y})
		data, _ := json.Marshal(Message{Type: TypeHit, Payload: payload})
		require.NoError(t, conn.Write(ctx, websocket.MessageText, data))

		msg := read(t, ctx, conn)
		require.Equal(t, TypeHitResult, msg.Type)
		var res HitResultPayload
		require.NoError(t, json.Unmarshal(msg.Payload, &res))
		assert.Equal(t, tc.want, res.ObjectID)
	}
}

func TestUnknownMessageGetsError(t *testing.T) {
	_, srv, ctx := startHub(t)
	conn := dial(t, ctx, srv)
	defer conn.CloseNow()
	read(t, ctx, conn) // welcome
	read(t, ctx, conn) // viewers

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"bogus"}`)))
	msg := read(t, ctx, conn)
	assert.Equal(t, TypeError, msg.Type)
}

func TestViewerLeaves(t *testing.T) {
	hub, srv, ctx := startHub(t)
	conn := dial(t, ctx, srv)
	read(t, ctx, conn)
	assert.Equal(t, 1, hub.Viewers("s1"))

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	assert.Eventually(t, func() bool { return hub.Viewers("s1") == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestForgetDropsRetainedFrame(t *testing.T) {
	hub := NewHub(nil)
	require.NoError(t, hub.Publish("s1", testFrame(0)))
	hub.Forget("s1")

	hub.mu.RLock()
	_, ok := hub.sessions["s1"]
	hub.mu.RUnlock()
	assert.False(t, ok)
}

func TestRepliesAfterShutdownAreDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := NewClient(hub, nil, "s1", "c1")
	hub.Register(c)
	require.NoError(t, hub.Publish("s1", testFrame(0)))
	cancel()
	<-stopped

	hit, err := json.Marshal(HitPayload{X: 50, Y: 50})
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		hub.handleMessage(c, &Message{Type: TypeHit, Payload: hit})
		hub.handleMessage(c, &Message{Type: "bogus"})
	})
}

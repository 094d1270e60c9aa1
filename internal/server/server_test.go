package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/motion/internal/config"
	"github.com/inamate/motion/internal/document"
	"github.com/inamate/motion/internal/render/stream"
)

func testConfig() *config.Config {
	return &config.Config{
		Width:          64,
		Height:         48,
		FPS:            30,
		Format:         "png",
		FfmpegPath:     "ffmpeg",
		FontSize:       48,
		AllowedOrigins: "http://localhost:5173",
	}
}

func newServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := stream.NewHub(logger)
	go hub.Run(ctx)

	cfg := testConfig()
	cfg.AssetDir = t.TempDir()
	s := New(cfg, hub, logger)
	srv := httptest.NewServer(s.Routes())
	t.Cleanup(func() {
		srv.Close()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		s.Shutdown(shutdownCtx)
	})
	return s, srv
}

func testScript(t *testing.T, steps ...document.Step) []byte {
	t.Helper()
	s := document.NewEmptyScript("script_test", "test run")
	s.Settings.Width, s.Settings.Height, s.Settings.FPS = 64, 48, 30
	s.Objects = []document.Object{{
		Index: 1, Kind: document.KindSquare,
		Data:      json.RawMessage(`{"side": 20}`),
		Transform: &document.Transform{X: 32, Y: 24},
		Style:     &document.Style{Fill: "#ff0000"},
	}}
	s.Steps = steps
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return data
}

func post(t *testing.T, url string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	_, srv := newServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
}

func TestSample(t *testing.T) {
	_, srv := newServer(t)
	resp, err := http.Get(srv.URL + "/api/sample")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	s, err := document.Decode(resp.Body)
	require.NoError(t, err)
	assert.NoError(t, s.Validate())
	assert.NotEmpty(t, s.Steps)
}

func TestRenderPNG(t *testing.T) {
	_, srv := newServer(t)
	body := testScript(t,
		document.Step{Op: document.OpAdd, Indices: []int{1}},
		document.Step{Op: document.OpHold, Frames: 2},
	)
	resp := post(t, srv.URL+"/api/render", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="test-run.png"`)

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
	r, g, b, _ := img.At(32, 24).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b})
}

func TestRenderSVG(t *testing.T) {
	_, srv := newServer(t)
	body := testScript(t,
		document.Step{Op: document.OpAdd, Indices: []int{1}},
		document.Step{Op: document.OpRender},
	)
	resp := post(t, srv.URL+"/api/render?format=svg", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestRenderErrors(t *testing.T) {
	_, srv := newServer(t)
	tests := []struct {
		name   string
		query  string
		body   []byte
		status int
	}{
		{"malformed json", "", []byte(`{`), http.StatusBadRequest},
		{"invalid script", "", []byte(`{"settings": {"width": 0, "height": 10, "fps": 1}}`), http.StatusBadRequest},
		{"unsupported format", "?format=bmp", testScript(t), http.StatusBadRequest},
		{"unknown animation", "", testScript(t,
			document.Step{Op: document.OpPlay, Indices: []int{1}, Animation: "teleport"}), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/render"+tt.query, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, decode[map[string]string](t, resp)["error"])
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	_, srv := newServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/render", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Empty(t, resp2.Header.Get("Access-Control-Allow-Origin"))
}

func TestSessionLifecycle(t *testing.T) {
	_, srv := newServer(t)
	body := testScript(t,
		document.Step{Op: document.OpAdd, Indices: []int{1}},
		document.Step{Op: document.OpHold, Frames: 600},
	)
	resp := post(t, srv.URL+"/api/sessions", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	info := decode[SessionInfo](t, resp)
	assert.True(t, strings.HasPrefix(info.ID, "sess_"))
	assert.Equal(t, "/api/sessions/"+info.ID+"/ws", info.WebSocket)

	get, err := http.Get(srv.URL + "/api/sessions/" + info.ID)
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/"+info.ID, nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)

	gone, err := http.Get(srv.URL + "/api/sessions/" + info.ID)
	require.NoError(t, err)
	defer gone.Body.Close()
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)

	bad, err := http.Get(srv.URL + "/api/sessions/proj_123")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestSessionRejectsBadScript(t *testing.T) {
	_, srv := newServer(t)
	s := document.NewEmptyScript("script_test", "bad")
	s.Objects = []document.Object{{Index: 1, Kind: "hexagram"}}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	resp := post(t, srv.URL+"/api/sessions", data)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionStreamsFrames(t *testing.T) {
	_, srv := newServer(t)
	body := testScript(t,
		document.Step{Op: document.OpAdd, Indices: []int{1}},
		document.Step{Op: document.OpRender},
		document.Step{Op: document.OpHold, Frames: 600},
	)
	resp := post(t, srv.URL+"/api/sessions", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	info := decode[SessionInfo](t, resp)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+info.WebSocket, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	// welcome and viewer counts may come first
	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg stream.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type != stream.TypeFrame {
			continue
		}
		var fp stream.FramePayload
		require.NoError(t, json.Unmarshal(msg.Payload, &fp))
		assert.Equal(t, 64, fp.Width)
		assert.NotEmpty(t, fp.Commands)
		return
	}
}

func upload(t *testing.T, url, contentType string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="dot.png"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAssetUploadAndUse(t *testing.T) {
	_, srv := newServer(t)
	img := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for x := range 6 {
		for y := range 4 {
			img.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	resp := upload(t, srv.URL+"/api/assets", "image/png", buf.Bytes())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	asset := decode[AssetResponse](t, resp)
	assert.True(t, strings.HasPrefix(asset.ID, "asset_"))
	assert.Equal(t, 6, asset.Width)
	assert.Equal(t, 4, asset.Height)

	get, err := http.Get(srv.URL + asset.URL)
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)
	assert.Contains(t, get.Header.Get("Cache-Control"), "immutable")

	s := document.NewEmptyScript("script_test", "asset")
	s.Settings.Width, s.Settings.Height, s.Settings.FPS = 64, 48, 30
	s.Objects = []document.Object{{
		Index: 1, Kind: document.KindImage,
		Data:      json.RawMessage(`{"asset": "` + asset.ID + `", "width": 30, "height": 20}`),
		Transform: &document.Transform{X: 32, Y: 24},
	}}
	s.Steps = []document.Step{{Op: document.OpAdd, Indices: []int{1}}, {Op: document.OpRender}}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	render := post(t, srv.URL+"/api/render", data)
	require.Equal(t, http.StatusOK, render.StatusCode)
	out, err := png.Decode(render.Body)
	require.NoError(t, err)
	_, _, b, _ := out.At(32, 24).RGBA()
	assert.Equal(t, uint32(0xffff), b)
}

func TestAssetUploadRejectsText(t *testing.T) {
	_, srv := newServer(t)
	resp := upload(t, srv.URL+"/api/assets", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

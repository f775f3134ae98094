package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/auralens/auralens/pkg/render"
	"github.com/auralens/auralens/pkg/upload"
	"github.com/auralens/auralens/pkg/vdom"
)

var sessionAttr = regexp.MustCompile(`data-session="([^"]+)"`)

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	factory := func(m Mount) vdom.Component {
		c := &counter{m: m}
		return c
	}
	srv := New(DefaultServerConfig(), factory, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Sessions().Shutdown(context.Background())
	})
	return srv, ts
}

func getPage(t *testing.T, ts *httptest.Server) (string, string) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d", resp.StatusCode)
	}
	m := sessionAttr.FindSubmatch(body)
	if m == nil {
		t.Fatalf("page has no session attribute:\n%s", body)
	}
	return string(body), string(m[1])
}

func dial(t *testing.T, ts *httptest.Server, sid string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + PathLive + "?sid=" + sid
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestPageRendersPendingSession(t *testing.T) {
	srv, ts := newTestServer(t, WithPage(render.PageData{Title: "Auralens"}))

	body, sid := getPage(t, ts)

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>Auralens</title>",
		`id="count" data-hid=`,
		render.DefaultClientScript,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if srv.Sessions().PendingCount() != 1 {
		t.Errorf("pending = %d, want 1", srv.Sessions().PendingCount())
	}
	if srv.Sessions().Get(sid) == nil {
		t.Error("rendered session is not registered")
	}
}

func TestLiveSessionRoundTrip(t *testing.T) {
	srv, ts := newTestServer(t)
	_, sid := getPage(t, ts)

	sess := srv.Sessions().Get(sid)
	incHID := vdom.FindByID(sess.Tree(), "inc").HID
	countHID := vdom.FindByID(sess.Tree(), "count").HID

	conn, _, err := dial(t, ts, sid)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(ClientFrame{Type: FrameEvent, Seq: 1, HID: incHID, Event: "click"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f ServerFrame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.Type != FramePatches || len(f.Patches) != 1 {
		t.Fatalf("frame = %+v", f)
	}
	if p := f.Patches[0]; p.Op != "setText" || p.HID != countHID || p.Value != "1" {
		t.Errorf("patch = %+v", p)
	}
	if srv.Sessions().LiveCount() != 1 {
		t.Errorf("live = %d, want 1", srv.Sessions().LiveCount())
	}
}

func TestSessionCanOnlyBeClaimedOnce(t *testing.T) {
	_, ts := newTestServer(t)
	_, sid := getPage(t, ts)

	conn, _, err := dial(t, ts, sid)
	if err != nil {
		t.Fatalf("first dial: %v", err)
	}
	defer conn.Close()

	_, resp, err := dial(t, ts, sid)
	if err == nil {
		t.Fatal("second dial succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusConflict {
		t.Errorf("second dial response = %v, want 409", resp)
	}

	_, resp, err = dial(t, ts, "unknown")
	if err == nil {
		t.Fatal("dial with unknown sid succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown sid response = %v, want 404", resp)
	}
}

func TestSessionLimitRejectsPage(t *testing.T) {
	cfg := DefaultServerConfig().WithMaxSessions(1)
	srv := New(cfg, func(m Mount) vdom.Component { return &counter{m: m} })
	t.Cleanup(func() { _ = srv.Sessions().Shutdown(context.Background()) })

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first page status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("second page status = %d, want 503", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathHealth, nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestThinClientETag(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, render.DefaultClientScript, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("Content-Type = %q", ct)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req := httptest.NewRequest(http.MethodGet, render.DefaultClientScript, nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Errorf("conditional GET status = %d, want 304", rec.Code)
	}
}

func TestOptionalRoutes(t *testing.T) {
	store := upload.NewMemoryStore(0)
	previews := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("preview"))
	})
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})
	srv, _ := newTestServer(t,
		WithUploads(store, nil),
		WithPreviews(previews),
		WithMetricsHandler(metrics))

	sess, err := srv.Sessions().Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(sess.ID(), []byte("png")))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "temp_id") {
		t.Errorf("upload = %d %q", rec.Code, rec.Body.String())
	}
	if store.Len() != 1 {
		t.Errorf("store holds %d files, want 1", store.Len())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_preview/abc", nil))
	if rec.Body.String() != "preview" {
		t.Errorf("preview route = %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, PathMetrics, nil))
	if rec.Body.String() != "metrics" {
		t.Errorf("metrics route = %q", rec.Body.String())
	}
}

func uploadRequest(sid string, data []byte) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "cat.png")
	_, _ = part.Write(data)
	_ = mw.Close()

	target := PathUpload
	if sid != "" {
		target += "?sid=" + sid
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadRequiresSession(t *testing.T) {
	store := upload.NewMemoryStore(0)
	srv, _ := newTestServer(t, WithUploads(store, nil))

	for _, sid := range []string{"", "no-such-session"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, uploadRequest(sid, []byte("png")))
		if rec.Code != http.StatusNotFound {
			t.Errorf("sid %q: status = %d, want 404", sid, rec.Code)
		}
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d files without a session", store.Len())
	}
}

func TestUploadStoreFull(t *testing.T) {
	store := upload.NewMemoryStore(0, upload.WithMaxTotal(4))
	srv, ts := newTestServer(t, WithUploads(store, nil))
	_, sid := getPage(t, ts)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(sid, []byte("png")))
	if rec.Code != http.StatusOK {
		t.Fatalf("first upload = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, uploadRequest(sid, []byte("png")))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("upload past the cap = %d, want 503", rec.Code)
	}
}

func TestClosingSessionDiscardsItsUploads(t *testing.T) {
	store := upload.NewMemoryStore(0)
	srv, ts := newTestServer(t, WithUploads(store, nil))
	_, pending := getPage(t, ts)
	_, live := getPage(t, ts)
	_, other := getPage(t, ts)

	conn, _, err := dial(t, ts, live)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for _, sid := range []string{pending, live, other} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, uploadRequest(sid, []byte("png")))
		if rec.Code != http.StatusOK {
			t.Fatalf("upload for %s = %d", sid, rec.Code)
		}
	}

	srv.Sessions().Close(pending)
	srv.Sessions().Close(live)

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if store.Len() != 1 {
		t.Errorf("store holds %d files, want only the open session's", store.Len())
	}
}

func TestOptionalRoutesAbsentByDefault(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, PathUpload, nil))
	if rec.Code == http.StatusOK {
		t.Error("upload route served without a store")
	}
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://example.com", true},
		{"http://evil.com", false},
		{"::bad", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/_live", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := SameOriginCheck(req); got != tt.want {
			t.Errorf("SameOriginCheck(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestServeAndShutdown(t *testing.T) {
	cfg := DefaultServerConfig().WithAddress("127.0.0.1:0")
	srv := New(cfg, func(m Mount) vdom.Component { return &counter{m: m} })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if srv.Addr() == nil {
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + srv.Addr().String() + PathHealth)
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("ListenAndServe = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Gaurav02lk-beep/Onyx/internal/health"
	"github.com/Gaurav02lk-beep/Onyx/internal/search"
	"github.com/Gaurav02lk-beep/Onyx/internal/speech"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway"
	"github.com/Gaurav02lk-beep/Onyx/pkg/provider/gateway/mock"
)

// fakeSessions runs real search sessions on their own loops.
type fakeSessions struct {
	gw      gateway.Provider
	openErr error

	mu     sync.Mutex
	loops  map[string]*search.Loop
	sess   map[string]*search.Session
	closed []string
}

func newFakeSessions(gw gateway.Provider) *fakeSessions {
	return &fakeSessions{gw: gw, loops: map[string]*search.Loop{}, sess: map[string]*search.Session{}}
}

func (f *fakeSessions) Open(ctx context.Context, p SessionParams) (*search.Session, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	loop := search.NewLoop()
	s := search.NewSession(f.gw, p.Playback, loop, search.DefaultConfig(),
		search.WithContext(ctx),
		search.WithCapture(p.Capture),
		search.WithStateListener(p.OnState),
	)
	go loop.Run(ctx)

	f.mu.Lock()
	f.loops[p.ID], f.sess[p.ID] = loop, s
	f.mu.Unlock()
	return s, nil
}

func (f *fakeSessions) Close(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sess[id]; ok {
		s.Close()
		loop := f.loops[id]
		loop.Dispatch(loop.Close)
		delete(f.sess, id)
	}
	f.closed = append(f.closed, id)
}

func (f *fakeSessions) closedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.closed...)
}

func startServer(t *testing.T, sessions Sessions, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(sessions, opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	conn.SetReadLimit(maxMessageBytes)
	return conn
}

func write(t *testing.T, conn *websocket.Conn, msg clientMessage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		t.Fatalf("write %s: %v", msg.Type, err)
	}
}

// readUntil reads messages until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(serverMessage) bool) serverMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		var m serverMessage
		if err := wsjson.Read(ctx, conn, &m); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(m) {
			return m
		}
	}
}

func TestServer_Index(t *testing.T) {
	t.Parallel()

	srv := startServer(t, newFakeSessions(&mock.Provider{}))
	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "new WebSocket") {
		t.Error("index page does not open the WebSocket")
	}
	if resp.Header.Get("X-Correlation-ID") == "" {
		t.Error("index is not wrapped by the observability middleware")
	}

	resp2, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", resp2.StatusCode)
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	t.Parallel()

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "onyx_sessions_active 0\n")
	})
	srv := startServer(t, newFakeSessions(&mock.Provider{}),
		WithHealth(health.New()),
		WithMetricsHandler(metrics),
	)

	for path, want := range map[string]int{"/healthz": 200, "/readyz": 200, "/metrics": 200} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("GET %s = %d, want %d", path, resp.StatusCode, want)
		}
	}
}

func TestServer_SearchOverWebSocket(t *testing.T) {
	t.Parallel()

	gw := &mock.Provider{TextResult: &gateway.TextResult{Text: "Pi is irrational. It never ends."}}
	sessions := newFakeSessions(gw)
	conn := dial(t, startServer(t, sessions))

	first := readUntil(t, conn, func(m serverMessage) bool { return m.Type == MsgState })
	if first.Session == "" || first.State == nil || first.State.Loading {
		t.Fatalf("initial state = %+v", first)
	}

	write(t, conn, clientMessage{Type: MsgQuery, Text: "what is pi"})
	write(t, conn, clientMessage{Type: MsgSubmit})

	done := readUntil(t, conn, func(m serverMessage) bool {
		return m.Type == MsgState && m.State.Answer != nil && !m.State.Loading
	})
	if len(done.State.Sentences) != 2 || done.Session != first.Session {
		t.Errorf("answer state = %+v", done)
	}

	write(t, conn, clientMessage{Type: MsgNarrate})
	speak := readUntil(t, conn, func(m serverMessage) bool { return m.Type == MsgSpeak })
	if speak.Text != "Pi is irrational." {
		t.Errorf("first utterance = %q", speak.Text)
	}
	write(t, conn, clientMessage{Type: MsgPlaybackEnd, ID: speak.ID})
	second := readUntil(t, conn, func(m serverMessage) bool { return m.Type == MsgSpeak })
	if second.Text != "It never ends." || second.ID == speak.ID {
		t.Errorf("second utterance = %+v", second)
	}
}

func TestServer_VoiceWithoutRecognizer(t *testing.T) {
	t.Parallel()

	conn := dial(t, startServer(t, newFakeSessions(&mock.Provider{})))
	readUntil(t, conn, func(m serverMessage) bool { return m.Type == MsgState })

	write(t, conn, clientMessage{Type: MsgCapabilities, Capture: false})
	write(t, conn, clientMessage{Type: MsgVoice})

	st := readUntil(t, conn, func(m serverMessage) bool {
		if m.Type == MsgCapture {
			t.Error("capture requested from a page without a recognizer")
		}
		return m.Type == MsgState && m.State.SpeechError != ""
	})
	if st.State.SpeechError != search.MsgSpeechUnavailable {
		t.Errorf("speech error = %q, want %q", st.State.SpeechError, search.MsgSpeechUnavailable)
	}
}

func TestServer_VoiceCaptureFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want string
	}{
		{code: string(speech.CaptureUnavailable), want: search.MsgSpeechUnavailable},
		{code: string(speech.CaptureStartFailed), want: search.MsgSpeechStartFailed},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			t.Parallel()

			conn := dial(t, startServer(t, newFakeSessions(&mock.Provider{})))
			readUntil(t, conn, func(m serverMessage) bool { return m.Type == MsgState })

			write(t, conn, clientMessage{Type: MsgCapabilities, Capture: true})
			write(t, conn, clientMessage{Type: MsgVoice})
			req := readUntil(t, conn, func(m serverMessage) bool { return m.Type == MsgCapture })

			write(t, conn, clientMessage{Type: MsgCaptureError, ID: req.ID, Code: tc.code})
			write(t, conn, clientMessage{Type: MsgCaptureEnd, ID: req.ID})

			st := readUntil(t, conn, func(m serverMessage) bool {
				return m.Type == MsgState && m.State.SpeechError != ""
			})
			if st.State.SpeechError != tc.want {
				t.Errorf("speech error = %q, want %q", st.State.SpeechError, tc.want)
			}
			if st.State.Listening {
				t.Error("still listening after the capture failed")
			}
		})
	}
}

func TestServer_ProtocolErrors(t *testing.T) {
	t.Parallel()

	conn := dial(t, startServer(t, newFakeSessions(&mock.Provider{})))
	readUntil(t, conn, func(m serverMessage) bool { return m.Type == MsgState })

	write(t, conn, clientMessage{Type: "teleport"})
	if m := readUntil(t, conn, func(m serverMessage) bool { return m.Type == MsgError }); !strings.Contains(m.Error, "teleport") {
		t.Errorf("error = %q", m.Error)
	}

	write(t, conn, clientMessage{Type: MsgAttachImage, Image: "data:image/gif;base64,R0lGOD"})
	if m := readUntil(t, conn, func(m serverMessage) bool { return m.Type == MsgError }); !strings.Contains(m.Error, "Unsupported image") {
		t.Errorf("error = %q", m.Error)
	}
}

func TestServer_DisconnectClosesSession(t *testing.T) {
	t.Parallel()

	sessions := newFakeSessions(&mock.Provider{})
	conn := dial(t, startServer(t, sessions))
	st := readUntil(t, conn, func(m serverMessage) bool { return m.Type == MsgState })

	conn.Close(websocket.StatusNormalClosure, "bye")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if ids := sessions.closedIDs(); len(ids) == 1 && ids[0] == st.Session {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("closed sessions = %q, want [%s]", sessions.closedIDs(), st.Session)
}

func TestServer_OpenFailureClosesSocket(t *testing.T) {
	t.Parallel()

	sessions := newFakeSessions(&mock.Provider{})
	sessions.openErr = errors.New("full")
	conn := dial(t, startServer(t, sessions))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusTryAgainLater {
		t.Errorf("read err = %v, want close status TryAgainLater", err)
	}
}

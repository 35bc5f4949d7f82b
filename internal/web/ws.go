package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Gaurav02lk-beep/Onyx/internal/observe"
	"github.com/Gaurav02lk-beep/Onyx/internal/search"
	"github.com/Gaurav02lk-beep/Onyx/internal/speech"
)

// maxMessageBytes caps one client message. Attached images travel as data
// URIs, so the limit is generous.
const maxMessageBytes = 16 << 20

// connection is the server side of one page.
type connection struct {
	id       string
	sess     *search.Session
	out      *outbox
	playback *remotePlayback
	capture  *remoteCapture
	log      *slog.Logger
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	log := observe.Logger(r.Context())

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns})
	if err != nil {
		log.Warn("web: websocket accept failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer ws.CloseNow()
	ws.SetReadLimit(maxMessageBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &connection{
		id:  uuid.NewString(),
		out: newOutbox(),
	}
	c.log = log.With("session", c.id)
	c.playback = newRemotePlayback(c.out.push)
	c.capture = newRemoteCapture(c.out.push)

	c.sess, err = s.sessions.Open(ctx, SessionParams{
		ID:       c.id,
		Remote:   r.RemoteAddr,
		Playback: c.playback,
		Capture:  c.capture,
		OnState:  c.pushState,
	})
	if err != nil {
		c.log.Warn("web: open session", "err", err)
		ws.Close(websocket.StatusTryAgainLater, "no session available")
		return
	}
	defer s.sessions.Close(c.id)
	defer c.out.close()

	c.log.Info("web: session connected", "remote", r.RemoteAddr)
	c.pushState(c.sess.Snapshot())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.out.run(gctx, func(ctx context.Context, m serverMessage) error {
			return wsjson.Write(ctx, ws, m)
		})
	})
	g.Go(func() error {
		defer c.out.close()
		return c.readLoop(gctx, ws)
	})
	err = g.Wait()

	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		c.log.Info("web: session disconnected")
	default:
		if errors.Is(err, context.Canceled) {
			c.log.Info("web: session disconnected")
		} else {
			c.log.Warn("web: session ended", "err", err)
		}
	}
	ws.Close(websocket.StatusNormalClosure, "")
}

func (c *connection) pushState(st search.State) {
	c.out.push(serverMessage{Type: MsgState, Session: c.id, State: &st})
}

func (c *connection) pushError(text string) {
	c.out.push(serverMessage{Type: MsgError, Error: text})
}

func (c *connection) readLoop(ctx context.Context, ws *websocket.Conn) error {
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			c.pushError("binary messages are not supported")
			continue
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Debug("web: malformed message", "err", err)
			c.pushError("malformed message")
			continue
		}
		c.handle(msg)
	}
}

// handle routes one client message to the session or a speech adapter.
func (c *connection) handle(msg clientMessage) {
	switch msg.Type {
	case MsgQuery:
		c.sess.SetQuery(msg.Text)
	case MsgFocus:
		c.sess.SetFocus(msg.Focused)
	case MsgClickOutside:
		c.sess.ClickOutside()
	case MsgChoose:
		c.sess.ChooseSuggestion(msg.Text)
	case MsgSubmit:
		c.sess.Submit()
	case MsgAttachImage:
		if err := c.sess.AttachImage(msg.Image); err != nil {
			c.log.Debug("web: rejected image", "err", err)
			c.pushError("Unsupported image. Use PNG, JPEG or WebP.")
		}
	case MsgClearImage:
		c.sess.ClearImage()
	case MsgVoice:
		c.sess.StartVoice()
	case MsgNarrate:
		c.sess.ToggleNarration()
	case MsgForge:
		c.sess.GenerateImage()
	case MsgDismissError:
		c.sess.DismissError()
	case MsgDismissImageError:
		c.sess.DismissImageError()

	case MsgCapabilities:
		c.capture.setSupported(msg.Capture)
	case MsgCaptureStart:
		c.capture.started(msg.ID)
	case MsgCaptureResult:
		c.capture.result(msg.ID, msg.Transcript, msg.Final)
	case MsgCaptureError:
		c.capture.failed(msg.ID, speech.CaptureErrorCode(msg.Code), msg.Detail)
	case MsgCaptureEnd:
		c.capture.ended(msg.ID)

	case MsgPlaybackEnd:
		c.playback.complete(msg.ID, "")
	case MsgPlaybackError:
		code := speech.PlaybackErrorCode(msg.Code)
		if code == "" {
			code = speech.PlaybackSynthesisFailed
		}
		c.playback.complete(msg.ID, code)

	default:
		c.log.Debug("web: unknown message type", "type", msg.Type)
		c.pushError("unknown message type " + msg.Type)
	}
}

package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	apperrors "github.com/roomdesk/roomdesk/internal/platform/errors"
	"github.com/roomdesk/roomdesk/internal/platform/httpx"
	"github.com/roomdesk/roomdesk/internal/platform/requestctx"
	"github.com/roomdesk/roomdesk/internal/platform/timeouts"
	"github.com/roomdesk/roomdesk/internal/services/reservation/api/wire"
)

const (
	maxFramesPerSecond     = 20
	maxDecodeErrorsPerConn = 3
)

// ConnRecorder receives websocket connection gauges.
type ConnRecorder interface {
	WebsocketOpened()
	WebsocketClosed()
}

type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WebsocketHandler streams reservation events to signed-in clients.
type WebsocketHandler struct {
	hub            *Hub
	recorder       ConnRecorder
	allowedOrigins map[string]struct{}
	writeTimeout   time.Duration
}

// WebsocketOption customizes a WebsocketHandler.
type WebsocketOption func(*WebsocketHandler)

// WithConnRecorder sets the connection gauge recorder.
func WithConnRecorder(recorder ConnRecorder) WebsocketOption {
	return func(h *WebsocketHandler) {
		h.recorder = recorder
	}
}

// WithAllowedOrigins accepts handshakes from these origins in addition to
// the request host.
func WithAllowedOrigins(origins ...string) WebsocketOption {
	return func(h *WebsocketHandler) {
		for _, origin := range origins {
			origin = strings.TrimRight(strings.TrimSpace(origin), "/")
			if origin != "" {
				h.allowedOrigins[strings.ToLower(origin)] = struct{}{}
			}
		}
	}
}

// NewWebsocketHandler builds the push endpoint. The Authenticate middleware
// must run first so the principal is in the request context.
func NewWebsocketHandler(hub *Hub, opts ...WebsocketOption) *WebsocketHandler {
	h := &WebsocketHandler{
		hub:            hub,
		allowedOrigins: make(map[string]struct{}),
		writeTimeout:   timeouts.WebSocketWrite,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP rejects anonymous requests and upgrades the rest.
func (h *WebsocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, ok := requestctx.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, apperrors.New(apperrors.CodeSessionRequired, "websocket requires a session"))
		return
	}
	server := websocket.Server{
		Handshake: h.checkOrigin,
		Handler: func(conn *websocket.Conn) {
			h.serve(conn, principal)
		},
	}
	server.ServeHTTP(w, r)
}

func (h *WebsocketHandler) checkOrigin(config *websocket.Config, r *http.Request) error {
	origin, err := websocket.Origin(config, r)
	if err != nil {
		return err
	}
	if origin == nil {
		return errors.New("missing origin")
	}
	config.Origin = origin
	if strings.EqualFold(origin.Host, r.Host) {
		return nil
	}
	if _, ok := h.allowedOrigins[strings.ToLower(originString(origin))]; ok {
		return nil
	}
	return fmt.Errorf("origin %q not allowed", origin.String())
}

func originString(origin *url.URL) string {
	return origin.Scheme + "://" + origin.Host
}

type wsPeer struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	encoder      *json.Encoder
	writeTimeout time.Duration
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeTimeout > 0 {
		_ = p.conn.SetWriteDeadline(time.Now().Add(p.writeTimeout))
	}
	return p.encoder.Encode(frame)
}

func (p *wsPeer) writeError(code, message string) error {
	return p.writeFrame(wsFrame{Type: "error", Payload: mustJSON(wsError{Code: code, Message: message})})
}

func (h *WebsocketHandler) serve(conn *websocket.Conn, principal requestctx.Principal) {
	defer func() {
		_ = conn.Close()
	}()
	if h.recorder != nil {
		h.recorder.WebsocketOpened()
		defer h.recorder.WebsocketClosed()
	}

	sub := h.hub.Subscribe(VisibleTo(principal.UserID, principal.IsAdmin()))
	defer sub.Close()

	peer := &wsPeer{conn: conn, encoder: json.NewEncoder(conn), writeTimeout: h.writeTimeout}
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		readFrames(conn, peer)
	}()

	_ = peer.writeFrame(wsFrame{Type: "ready", Payload: mustJSON(map[string]string{
		"user_id": principal.UserID,
		"role":    principal.Role,
	})})

	for {
		select {
		case <-readerDone:
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			frame := wsFrame{Type: string(event.Type), Payload: mustJSON(wire.FromReservation(event.Reservation))}
			if err := peer.writeFrame(frame); err != nil {
				log.Printf("websocket write failed user_id=%s err=%v", principal.UserID, err)
				return
			}
		}
	}
}

func readFrames(conn *websocket.Conn, peer *wsPeer) {
	decoder := json.NewDecoder(conn)
	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0
	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) {
				return
			}
			decodeErrors++
			_ = peer.writeError("INVALID_ARGUMENT", "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			decoder = json.NewDecoder(conn)
			continue
		}
		decodeErrors = 0

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			_ = peer.writeError("RESOURCE_EXHAUSTED", "rate limit exceeded")
			return
		}

		switch frame.Type {
		case "ping":
			_ = peer.writeFrame(wsFrame{Type: "pong"})
		default:
			_ = peer.writeError("INVALID_ARGUMENT", "unsupported frame type")
		}
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}

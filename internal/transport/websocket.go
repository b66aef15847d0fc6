package transport

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"mvc-server/internal/dispatch"
	"mvc-server/internal/protocol"
)

const (
	defaultReadLimit = 64 * 1024

	FrameDispatched = "dispatched"
	FrameRejected   = "rejected"
)

// FrameObserver is told the outcome of every request frame.
type FrameObserver interface {
	ObserveFrame(outcome string)
}

// WSHandler upgrades a request and runs every incoming frame through the
// dispatcher. Frames on one connection are answered in order.
type WSHandler struct {
	dispatcher http.Handler
	upgrader   websocket.Upgrader
	logger     *zap.Logger
	observer   FrameObserver
	readLimit  int64
}

func NewWSHandler(dispatcher http.Handler, logger *zap.Logger, observer FrameObserver) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			HandshakeTimeout: 5 * time.Second,
		},
		logger:    logger,
		observer:  observer,
		readLimit: defaultReadLimit,
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("addr", r.RemoteAddr),
			zap.String("reason", err.Error()),
		)
		return
	}
	ws.SetReadLimit(h.readLimit)
	conn := NewWSConn(ws)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-r.Context().Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	h.logger.Debug("websocket connected", zap.String("addr", r.RemoteAddr))
	h.serveConn(r, conn)
	_ = conn.Close()
}

func (h *WSHandler) serveConn(r *http.Request, conn Conn) {
	for {
		msg, binary, err := conn.ReadFrame()
		var reply *structpb.Struct
		switch {
		case errors.Is(err, ErrBadFrame):
			h.observe(FrameRejected)
			reply = EncodeReply("", http.StatusBadRequest, err.Error())
		case err != nil:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket closed",
					zap.String("addr", r.RemoteAddr),
					zap.String("reason", err.Error()),
				)
			}
			return
		default:
			reply = h.handleFrame(r, msg)
		}
		if err := conn.WriteFrame(reply, binary); err != nil {
			h.logger.Warn("websocket write failed",
				zap.String("addr", r.RemoteAddr),
				zap.String("reason", err.Error()),
			)
			return
		}
	}
}

func (h *WSHandler) handleFrame(parent *http.Request, msg *structpb.Struct) *structpb.Struct {
	fr, err := DecodeRequest(msg)
	if err != nil {
		h.observe(FrameRejected)
		id, _ := scalarText(msg.GetFields()[protocol.FrameID])
		return EncodeReply(id, http.StatusBadRequest, err.Error())
	}

	target := &url.URL{Path: fr.Path, RawQuery: fr.Params.Encode()}
	req, err := http.NewRequestWithContext(parent.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		h.observe(FrameRejected)
		return EncodeReply(fr.ID, http.StatusBadRequest, err.Error())
	}
	req.RemoteAddr = parent.RemoteAddr
	if fr.ID != "" {
		req.Header.Set(dispatch.TraceHeader, fr.ID)
	}

	out := newBufferedWriter()
	h.dispatcher.ServeHTTP(out, req)
	h.observe(FrameDispatched)
	return EncodeReply(fr.ID, out.Status(), out.body.String())
}

func (h *WSHandler) observe(outcome string) {
	if h.observer != nil {
		h.observer.ObserveFrame(outcome)
	}
}

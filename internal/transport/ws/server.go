package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"warrantsim.ai/internal/protocol"
	"warrantsim.ai/internal/sim/warrants"
)

type Server struct {
	mgr *warrants.Manager
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(m *warrants.Manager, logger *log.Logger) *Server {
	s := &Server{
		mgr: m,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		clientID, out := s.handshake(conn)
		if clientID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			if base.Type != protocol.TypeAct {
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				continue
			}
			if act.ProtocolVersion != protocol.Version || !protocol.IsKnownOp(act.Op) {
				continue
			}
			s.mgr.Inbox() <- warrants.OpEnvelope{ClientID: clientID, Act: act}
		}

		// Cleanup.
		s.mgr.Unwatch() <- clientID
	}
}

func (s *Server) handshake(conn *websocket.Conn) (clientID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	out = make(chan []byte, 32)

	respCh := make(chan warrants.WatchResponse, 1)
	s.mgr.Watch() <- warrants.WatchRequest{
		Name: hello.ClientName,
		Out:  out,
		Resp: respCh,
	}
	resp := <-respCh

	// Send welcome + initial board immediately.
	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.mgr.Unwatch() <- resp.ClientID
		return "", nil
	}
	if err := writeJSON(conn, resp.Board); err != nil {
		s.mgr.Unwatch() <- resp.ClientID
		return "", nil
	}

	return resp.ClientID, out
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

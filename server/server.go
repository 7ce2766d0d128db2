// Package server exposes the pipeline over a websocket so a browser
// client can ingest sources and ask questions with streamed replies.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/lowrk/distill/pkg/rag"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // development default, front with a proxy that checks origins
	},
}

// Message is one frame on the websocket, in both directions. Clients
// send "ask", "ingest" and "status" frames; the server replies with
// "stream", "answer", "status", "ingested" and "error" frames.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// Pipeline is the slice of the rag pipeline the server drives.
type Pipeline interface {
	AskStream(ctx context.Context, question string, onChunk func(string)) (*rag.Answer, error)
	Ingest(ctx context.Context, locations ...string) (*rag.Report, error)
	Status(ctx context.Context) (*rag.Status, error)
}

// WSServer bridges websocket clients to a pipeline.
type WSServer struct {
	pipeline Pipeline
	log      *logrus.Logger
}

func New(pipeline Pipeline, log *logrus.Logger) *WSServer {
	if log == nil {
		log = logrus.New()
	}
	return &WSServer{pipeline: pipeline, log: log}
}

// Handler serves the websocket endpoint and a health check.
func (s *WSServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// ListenAndServe blocks until the context is canceled or the listener
// fails. Cancellation drains in-flight connections briefly before
// returning.
func (s *WSServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.log.WithField("addr", addr).Info("websocket server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// wsConn serializes writes. Frames for one connection are produced by
// concurrent handler goroutines, and gorilla connections allow only one
// writer at a time.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Error("websocket upgrade failed")
		return
	}
	defer conn.Close()

	wc := &wsConn{conn: conn}
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.WithError(err).Debug("websocket read failed")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.sendError(wc, "malformed message")
			continue
		}

		// The request context dies with the connection, taking any
		// in-flight work along with it.
		go s.handleMessage(r.Context(), wc, msg)
	}
}

func (s *WSServer) handleMessage(ctx context.Context, conn *wsConn, msg Message) {
	switch msg.Type {
	case "ask":
		s.handleAsk(ctx, conn, msg.Content)
	case "ingest":
		s.handleIngest(ctx, conn, msg.Content)
	case "status":
		s.handleStatus(ctx, conn)
	default:
		s.sendError(conn, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (s *WSServer) handleAsk(ctx context.Context, conn *wsConn, question string) {
	if strings.TrimSpace(question) == "" {
		s.sendError(conn, "ask needs a question in content")
		return
	}

	answer, err := s.pipeline.AskStream(ctx, question, func(chunk string) {
		_ = conn.send(Message{Type: "stream", Content: chunk})
	})
	if err != nil {
		s.log.WithError(err).Error("answering over websocket failed")
		s.sendError(conn, err.Error())
		return
	}

	if err := conn.send(Message{Type: "answer", Content: answer.Text, Data: answer.Sources}); err != nil {
		s.log.WithError(err).Debug("writing answer frame failed")
	}
}

func (s *WSServer) handleIngest(ctx context.Context, conn *wsConn, content string) {
	locations := strings.Fields(content)
	if len(locations) == 0 {
		s.sendError(conn, "ingest needs one or more locations in content")
		return
	}

	_ = conn.send(Message{Type: "status", Content: fmt.Sprintf("ingesting %d sources", len(locations))})

	report, err := s.pipeline.Ingest(ctx, locations...)
	if err != nil {
		s.log.WithError(err).Error("ingest over websocket failed")
		s.sendError(conn, err.Error())
		return
	}

	summary := fmt.Sprintf("stored %d chunks, skipped %d unchanged sources", report.Stored, report.Skipped)
	if err := conn.send(Message{Type: "ingested", Content: summary, Data: report.Results}); err != nil {
		s.log.WithError(err).Debug("writing ingest frame failed")
	}
}

func (s *WSServer) handleStatus(ctx context.Context, conn *wsConn) {
	st, err := s.pipeline.Status(ctx)
	if err != nil {
		s.sendError(conn, err.Error())
		return
	}

	summary := fmt.Sprintf("%d vectors from %d sources", st.Vectors, st.Sources)
	_ = conn.send(Message{Type: "status", Content: summary, Data: st})
}

func (s *WSServer) sendError(conn *wsConn, text string) {
	if err := conn.send(Message{Type: "error", Content: text}); err != nil {
		s.log.WithError(err).Debug("writing error frame failed")
	}
}

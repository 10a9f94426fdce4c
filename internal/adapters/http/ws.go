package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/aretw0/rill/pkg/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait).
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// stepFrame is one streamed step. done frames close the stream and
// carry the run's terminal status instead of a step.
type stepFrame struct {
	Step   *domain.Step     `json:"step,omitempty"`
	Status domain.RunStatus `json:"status,omitempty"`
	Done   bool             `json:"done,omitempty"`
}

// streamRun streams the steps of a run over a WebSocket until the run
// reaches a terminal status. Late subscribers receive only steps
// produced after connecting; history is available via the state
// endpoint.
func (s *Server) streamRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	steps, unsubscribe, err := s.engine.Subscribe(runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			s.error(w, http.StatusNotFound, err.Error())
			return
		}
		s.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer unsubscribe()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "run", runID, "error", err)
		return
	}
	defer conn.Close()

	// Reader goroutine handles pongs and close frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case step, ok := <-steps:
			if !ok {
				// Stream closed: the run reached a terminal status.
				status := domain.StatusCompleted
				if run, err := s.engine.GetState(r.Context(), runID); err == nil {
					status = run.Status
				}
				_ = s.writeFrame(conn, stepFrame{Status: status, Done: true})
				return
			}
			if err := s.writeFrame(conn, stepFrame{Step: &step}); err != nil {
				s.logger.Debug("ws write failed", "run", runID, "error", err)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, frame stepFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

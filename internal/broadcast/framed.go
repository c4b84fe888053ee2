package broadcast

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"onyxnet/internal/protocol/wire"
)

func (s *Server) newUpgrader() *websocket.Upgrader {
	check := s.cfg.CheckOrigin
	if check == nil {
		check = func(*http.Request) bool { return true }
	}
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     check,
	}
}

// serveFramed upgrades the request and forwards every frame the client sends
// until it closes or errors.
func (s *Server) serveFramed(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"function": "serveFramed",
			"remote":   r.RemoteAddr,
			"error":    err.Error(),
		}).Debug("Upgrade failed")
		return
	}
	conn.SetReadLimit(s.cfg.frameLimit())

	h := NewFramedHandle(conn, s.cfg.WriteTimeout)
	if !s.admit(h) {
		return
	}
	log := s.log.WithFields(logrus.Fields{
		"function":  "serveFramed",
		"remote":    h.RemoteAddr(),
		"transport": KindFramed,
	})
	log.Info("Client connected")

	defer func() {
		s.registry.Unregister(h)
		_ = h.Close()
		log.Info("Client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			switch {
			case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
				log.WithField("error", err.Error()).Debug("Unexpected close")
			case errors.Is(err, websocket.ErrReadLimit):
				log.WithField("limit", s.cfg.frameLimit()).Warn("Frame too large, closing")
			}
			return
		}
		line := append(data, wire.Delimiter)
		s.metrics.unitReceived(KindFramed, len(line))
		s.registry.Broadcast(line, h)
	}
}

package broadcast

import (
	"bufio"
	"errors"
	"io"
	"net"

	"github.com/sirupsen/logrus"

	"onyxnet/internal/protocol/wire"
)

// acceptStream accepts TCP connections until ln is closed.
func (s *Server) acceptStream(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.WithFields(logrus.Fields{
				"function": "acceptStream",
				"error":    err.Error(),
			}).Warn("Accept failed")
			continue
		}
		if !s.track() {
			_ = conn.Close()
			return
		}
		go func() {
			defer s.wg.Done()
			s.handleStream(conn)
		}()
	}
}

// handleStream registers conn and forwards every line it sends until EOF,
// a read error, or an oversized line.
func (s *Server) handleStream(conn net.Conn) {
	h := NewStreamHandle(conn, s.cfg.WriteTimeout)
	if !s.admit(h) {
		return
	}
	log := s.log.WithFields(logrus.Fields{
		"function":  "handleStream",
		"remote":    h.RemoteAddr(),
		"transport": KindStream,
	})
	log.Info("Client connected")

	defer func() {
		s.registry.Unregister(h)
		_ = h.Close()
		log.Info("Client disconnected")
	}()

	r := bufio.NewReader(conn)
	for {
		line, err := wire.ReadLine(r, s.cfg.MaxMessageSize)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			case errors.Is(err, wire.ErrLineTooLong):
				log.WithField("limit", s.cfg.MaxMessageSize).Warn("Line too long, closing")
			default:
				log.WithField("error", err.Error()).Debug("Read failed")
			}
			return
		}
		s.metrics.unitReceived(KindStream, len(line))
		s.registry.Broadcast(line, h)
	}
}

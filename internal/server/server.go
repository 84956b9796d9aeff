package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/rs/zerolog"

	"github.com/merklekv/merklekv/internal/store"
	"github.com/merklekv/merklekv/internal/wire"
	"github.com/merklekv/merklekv/pkg/log"
)

// Server exposes a store over a Unix domain socket. Connections are served
// one at a time, in arrival order; one logical session spans all of them.
type Server struct {
	socketPath string
	store      *store.Store
	listener   net.Listener
	log        zerolog.Logger
}

func New(socketPath string, st *store.Store) *Server {
	return &Server{
		socketPath: socketPath,
		store:      st,
		log:        log.Server,
	}
}

// Start binds the socket and serves until Stop is called. A stale socket
// file at the path is removed first. Failed accepts are logged and skipped.
func (s *Server) Start() error {
	if _, err := os.Stat(s.socketPath); err == nil {
		if err := os.Remove(s.socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on unix socket: %w", err)
	}
	s.listener = listener
	s.log.Info().Str("socket", s.socketPath).Msg("listening")

	d := newDispatcher(s.store, s.log)
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error().Err(err).Msg("accept failed")
			continue
		}
		s.serveConn(conn, d)
	}
}

// Stop closes the listener, unblocking Start.
func (s *Server) Stop() error {
	return s.listener.Close()
}

// serveConn drives one connection to completion: frame, decode, dispatch,
// respond. A framing or decode error ends the connection; the dispatcher's
// session survives into the next one.
func (s *Server) serveConn(conn net.Conn, d *dispatcher) {
	defer conn.Close()
	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debug().Msg("client disconnected")
			} else {
				s.log.Warn().Err(err).Msg("framing error, closing connection")
			}
			return
		}

		req, err := wire.UnmarshalRequest(payload)
		if err != nil {
			s.log.Warn().Err(err).Msg("malformed request, closing connection")
			return
		}

		resp := d.dispatch(req)
		respBytes, err := wire.MarshalResponse(resp)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to encode response")
			return
		}
		if err := wire.WriteFrame(conn, respBytes); err != nil {
			s.log.Warn().Err(err).Msg("failed to write response")
			return
		}
	}
}

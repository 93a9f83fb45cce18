package logsink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-zeromq/zmq4"
	"github.com/sirupsen/logrus"
)

// Server binds a PULL socket and re-emits every record it receives through
// the given logrus logger.
type Server struct {
	address string
	out     *logrus.Logger
	sock    zmq4.Socket
}

func NewServer(address string, out *logrus.Logger) *Server {
	if address == "" {
		address = DefaultAddress
	}
	return &Server{address: address, out: out}
}

// Listen binds the socket. Cancelling ctx unblocks Serve.
func (s *Server) Listen(ctx context.Context) error {
	s.sock = zmq4.NewPull(ctx)
	if err := s.sock.Listen(s.address); err != nil {
		s.sock.Close()
		return fmt.Errorf("bind %s: %w", s.address, err)
	}
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() net.Addr {
	if s.sock == nil {
		return nil
	}
	return s.sock.Addr()
}

// Serve receives until the socket's context is cancelled. Senders come and
// go: a peer disconnecting or a failed receive is logged and Serve keeps
// going, pausing with exponential backoff while errors repeat.
func (s *Server) Serve(ctx context.Context) error {
	if s.sock == nil {
		return errors.New("logsink: Serve called before Listen")
	}
	defer s.sock.Close()
	s.out.WithField("address", s.address).Info("Logging server started")

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = 0

	for {
		msg, err := s.sock.Recv()
		if ctx.Err() != nil {
			s.out.Info("Logging server stopped")
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.out.Debug("log sender disconnected")
			} else {
				s.out.WithField("error", err.Error()).Warn("receive failed")
			}
			select {
			case <-ctx.Done():
				s.out.Info("Logging server stopped")
				return nil
			case <-time.After(bo.NextBackOff()):
			}
			continue
		}
		bo.Reset()
		for _, frame := range msg.Frames {
			s.emit(frame)
		}
	}
}

// Run is Listen followed by Serve.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) emit(frame []byte) {
	rec, err := Decode(frame)
	if err != nil {
		s.out.WithField("error", err.Error()).Warn("skipping malformed log record")
		return
	}
	e := logrus.NewEntry(s.out)
	if len(rec.Extra) > 0 {
		e = e.WithFields(logrus.Fields(rec.Extra))
	}
	if rec.Time != nil {
		e = e.WithTime(*rec.Time)
	}
	e.Log(ParseLevelName(rec.Level), rec.Message)
}

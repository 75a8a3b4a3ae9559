package socks5

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server holds the process-wide, read-only configuration every session
// shares: the auth mode, and the two injected capabilities spec.md §6
// keeps external to the core (DNS resolution and upstream dialing).
type Server struct {
	AuthMode AuthMode
	Resolver Resolver
	Dialer   Dialer

	// Logger receives one structured line per terminal session outcome.
	// A nil Logger is replaced with zap.NewNop() lazily.
	Logger *zap.Logger

	// HandshakeTimeout bounds the negotiation/auth/request phases only;
	// it is cleared before Relay begins, matching the teacher's
	// handshake-only deadline (Ealireza-SuperProxy/proxy.go).
	HandshakeTimeout time.Duration
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// phase is the tagged session state from spec.md §3/§9: a small enum the
// driver switches on and rebinds, rather than Go's lack of sum types
// requiring one struct per variant with shared fields.
type phase int

const (
	phaseMethodNegotiation phase = iota
	phaseUserPasswordAuth
	phaseRequest
	phaseRelay
)

// ServeConn is the session entry point from spec.md §6: `accept(stream) →
// task`. The caller hands off an established client stream; ServeConn
// owns it for the rest of its lifetime and returns only once the session
// has terminated (relay completed, a protocol error was answered and the
// stream closed, or a transport error aborted the session).
//
// ServeConn never panics on a protocol error. It returns a non-nil error
// only when writing an error reply fails; other transport failures (during
// negotiation, auth, request, or relay) end the session with a nil return.
func (s *Server) ServeConn(ctx context.Context, client net.Conn) error {
	defer client.Close()

	sessionID := uuid.NewString()
	log := s.logger().With(zap.String("session", sessionID), zap.Stringer("remote", client.RemoteAddr()))

	if s.HandshakeTimeout > 0 {
		client.SetDeadline(time.Now().Add(s.HandshakeTimeout))
	}

	state := phaseMethodNegotiation
	var upstream net.Conn

	for {
		switch state {
		case phaseMethodNegotiation:
			method, err := negotiateMethod(client, s.AuthMode)
			if err != nil {
				return s.fail(log, client, err)
			}
			if method == MethodUserPass {
				state = phaseUserPasswordAuth
			} else {
				state = phaseRequest
			}

		case phaseUserPasswordAuth:
			if err := authenticateUserPass(client, s.AuthMode); err != nil {
				return s.fail(log, client, err)
			}
			state = phaseRequest

		case phaseRequest:
			conn, err := handleRequest(ctx, client, s.Resolver, s.Dialer)
			if err != nil {
				return s.fail(log, client, err)
			}
			upstream = conn
			state = phaseRelay

		case phaseRelay:
			client.SetDeadline(time.Time{})
			upstream.SetDeadline(time.Time{})

			err := relay(client, upstream)
			upstream.Close()
			if err != nil {
				log.Debug("relay ended", zap.Error(err))
			} else {
				log.Info("relay completed")
			}
			return nil
		}
	}
}

// fail implements the ErrorResponder (spec.md §4.6): map err to its
// bit-exact wire reply, write it, and close. A transport error hit while
// reading/writing during negotiation, auth, or the request (client gone,
// reset, etc.) terminates the session silently, per spec.md §7. Only a
// transport error hit while writing the error reply itself is returned to
// the caller for logging.
func (s *Server) fail(log *zap.Logger, client net.Conn, err error) error {
	reply, ok := replyBytes(err)
	if !ok {
		// Not a protocol error: a transport failure on the original
		// read/write. Silent abort, no reply attempted.
		log.Debug("session aborted", zap.Error(err))
		return nil
	}

	log.Info("protocol error", zap.Error(err))
	if _, writeErr := client.Write(reply); writeErr != nil {
		log.Warn("failed to write error reply", zap.Error(writeErr))
		return writeErr
	}
	return nil
}

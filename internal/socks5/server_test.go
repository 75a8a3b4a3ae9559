package socks5

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(mode AuthMode, dialer Dialer) *Server {
	return &Server{AuthMode: mode, Resolver: fakeResolver{}, Dialer: dialer}
}

// Scenario 2 (spec.md §8): bad client version produces 05 FF and closes.
func TestServeConn_BadClientVersion(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	srv := testServer(NoAuth(), fakeDialer{})
	go srv.ServeConn(context.Background(), server)

	go client.Write([]byte{0x06, 0x01, 0x00})

	reply := make([]byte, 2)
	_, err := io.ReadFull(client, reply)
	require.NoError(t, err)
	assert.Equal(t, []byte{Ver, MethodNoneAcceptable}, reply)

	n, err := client.Read(make([]byte, 1))
	assert.Equal(t, 0, n)
	assert.Error(t, err)
}

// Scenario 3: no acceptable methods.
func TestServeConn_NoAcceptableMethods(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	srv := testServer(NoAuth(), fakeDialer{})
	go srv.ServeConn(context.Background(), server)

	client.Write([]byte{Ver, 1, MethodUserPass})

	reply := make([]byte, 2)
	_, err := io.ReadFull(client, reply)
	require.NoError(t, err)
	assert.Equal(t, []byte{Ver, MethodNoneAcceptable}, reply)
}

// Scenario 6: unsupported command after a valid negotiation.
func TestServeConn_UnsupportedCommand(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	srv := testServer(NoAuth(), fakeDialer{})
	go srv.ServeConn(context.Background(), server)

	client.Write([]byte{Ver, 1, MethodNoAuth})
	negReply := make([]byte, 2)
	io.ReadFull(client, negReply)
	require.Equal(t, []byte{Ver, MethodNoAuth}, negReply)

	go client.Write([]byte{Ver, 0x02, RSV, AtypIPv4, 1, 1, 1, 1, 0, 80})

	reply := make([]byte, 2)
	_, err := io.ReadFull(client, reply)
	require.NoError(t, err)
	assert.Equal(t, []byte{Ver, RepCmdUnsupported}, reply)
}

// Scenario 5: credential negotiation failure.
func TestServeConn_CredentialFailure(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	srv := testServer(RequireCredential("socks5", "password"), fakeDialer{})
	go srv.ServeConn(context.Background(), server)

	client.Write([]byte{Ver, 1, MethodUserPass})
	negReply := make([]byte, 2)
	io.ReadFull(client, negReply)
	require.Equal(t, []byte{Ver, MethodUserPass}, negReply)

	client.Write([]byte{SubnegVer, 6})
	client.Write([]byte("socks5"))
	client.Write([]byte{3})
	client.Write([]byte("bad"))

	reply := make([]byte, 2)
	_, err := io.ReadFull(client, reply)
	require.NoError(t, err)
	assert.Equal(t, []byte{SubnegVer, AuthStatusFail}, reply)
}

// A client that disconnects before completing negotiation is a transport
// error on the original read, not on an error reply — ServeConn must
// terminate silently (spec.md §7), not surface it to the caller.
func TestServeConn_ClientDisconnectsBeforeNegotiationIsSilent(t *testing.T) {
	client, server := net.Pipe()

	srv := testServer(NoAuth(), fakeDialer{})
	done := make(chan error, 1)
	go func() { done <- srv.ServeConn(context.Background(), server) }()

	client.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ServeConn did not return")
	}
}

func TestServeConn_FullRelayAfterCredentialSuccess(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	upstreamA, upstreamB := net.Pipe()
	defer upstreamB.Close()

	srv := testServer(RequireCredential("socks5", "password"), fakeDialer{conn: upstreamA})
	done := make(chan error, 1)
	go func() { done <- srv.ServeConn(context.Background(), server) }()

	client.Write([]byte{Ver, 1, MethodUserPass})
	negReply := make([]byte, 2)
	io.ReadFull(client, negReply)
	require.Equal(t, []byte{Ver, MethodUserPass}, negReply)

	client.Write([]byte{SubnegVer, 6})
	client.Write([]byte("socks5"))
	client.Write([]byte{8})
	client.Write([]byte("password"))

	authReply := make([]byte, 2)
	io.ReadFull(client, authReply)
	require.Equal(t, []byte{SubnegVer, AuthStatusOK}, authReply)

	client.Write([]byte{Ver, CmdConnect, RSV, AtypIPv4, 0x0E, 0x77, 0x68, 0xFE, 0x00, 0x50})

	connReply := make([]byte, 10)
	_, err := io.ReadFull(client, connReply)
	require.NoError(t, err)
	assert.Equal(t, []byte{Ver, RepOK, RSV, AtypIPv4, 0, 0, 0, 0, 0, 0}, connReply)

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		buf := make([]byte, len("ping"))
		io.ReadFull(upstreamB, buf)
		assert.Equal(t, "ping", string(buf))
		upstreamB.Write([]byte("pong"))
	}()

	client.Write([]byte("ping"))
	pong := make([]byte, len("pong"))
	_, err = io.ReadFull(client, pong)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(pong))

	<-relayDone
	client.Close()
	upstreamB.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ServeConn did not return")
	}
}

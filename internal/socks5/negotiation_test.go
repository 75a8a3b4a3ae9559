package socks5

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiateMethod_NoAuthHappyPath(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan struct{})
	reply := make([]byte, 2)
	var readErr error
	go func() {
		defer close(done)
		_, err := client.Write([]byte{Ver, 1, MethodNoAuth})
		require.NoError(t, err)
		_, readErr = client.Read(reply)
	}()

	method, err := negotiateMethod(server, NoAuth())
	require.NoError(t, err)
	assert.Equal(t, byte(MethodNoAuth), method)
	<-done

	require.NoError(t, readErr)
	assert.Equal(t, []byte{Ver, MethodNoAuth}, reply)
}

func TestNegotiateMethod_CredentialHappyPath(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		client.Write([]byte{Ver, 1, MethodUserPass})
		client.Read(make([]byte, 2))
	}()

	method, err := negotiateMethod(server, RequireCredential("socks5", "password"))
	require.NoError(t, err)
	assert.Equal(t, byte(MethodUserPass), method)
}

func TestNegotiateMethod_BadVersion(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go client.Write([]byte{0x06, 1, MethodNoAuth})

	_, err := negotiateMethod(server, NoAuth())
	var badVer ErrBadVersion
	require.ErrorAs(t, err, &badVer)
	assert.EqualValues(t, 0x06, badVer.Version)
}

func TestNegotiateMethod_NoAcceptableMethods(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go client.Write([]byte{Ver, 1, MethodUserPass})

	_, err := negotiateMethod(server, NoAuth())
	var unacceptable ErrUnacceptableMethods
	require.ErrorAs(t, err, &unacceptable)
	assert.Equal(t, []byte{MethodUserPass}, unacceptable.Methods)
}

func TestNegotiateMethod_ZeroMethods(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go client.Write([]byte{Ver, 0})

	_, err := negotiateMethod(server, NoAuth())
	assert.ErrorAs(t, err, &ErrNoAuthMethods{})
}

// Property: any first byte != 0x05 in the initial state produces BadVersion
// regardless of what follows (spec.md §8).
func TestNegotiateMethod_AnyBadFirstByte(t *testing.T) {
	for _, first := range []byte{0x00, 0x01, 0x04, 0x06, 0xFF} {
		client, server := net.Pipe()
		go client.Write([]byte{first, 1, 0})

		_, err := negotiateMethod(server, NoAuth())
		var badVer ErrBadVersion
		assert.ErrorAs(t, err, &badVer, "first byte %#x", first)
		assert.EqualValues(t, first, badVer.Version)

		client.Close()
		server.Close()
	}
}

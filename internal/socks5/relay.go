package socks5

import (
	"io"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"
)

// relayBufferSize is the per-direction copy buffer. spec.md §4.5 says 8 KiB
// is sufficient; there is no application-level buffering beyond this.
const relayBufferSize = 8 * 1024

var relayBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, relayBufferSize)
		return &buf
	},
}

// relay implements spec.md §4.5: copy bytes bidirectionally between client
// and upstream until both directions have reached EOF, or either errors.
// No SOCKS-level reply is emitted once relay begins — the channel is
// transparent from here on.
func relay(client, upstream net.Conn) error {
	var g errgroup.Group

	// A failed direction closes both streams so the other copy unblocks
	// and relay returns without waiting for the peer to finish.
	abortOnError := func(err error) error {
		if err != nil {
			client.Close()
			upstream.Close()
		}
		return err
	}

	g.Go(func() error { return abortOnError(copyAndHalfClose(upstream, client)) })
	g.Go(func() error { return abortOnError(copyAndHalfClose(client, upstream)) })

	return g.Wait()
}

// copyAndHalfClose copies from src to dst, then half-closes dst's write
// side so the peer observes EOF and can drain. Mirrors the teacher's
// copyAndClose (Ealireza-SuperProxy/proxy.go), generalized to return the
// copy error instead of swallowing it, so the driver can distinguish a
// clean relay from a transport failure.
func copyAndHalfClose(dst, src net.Conn) error {
	bufp := relayBufPool.Get().(*[]byte)
	defer relayBufPool.Put(bufp)

	_, err := io.CopyBuffer(dst, src, *bufp)

	if tc, ok := dst.(*net.TCPConn); ok {
		tc.CloseWrite()
	}
	if tc, ok := src.(*net.TCPConn); ok {
		tc.CloseRead()
	}
	return err
}

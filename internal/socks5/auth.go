package socks5

import (
	"crypto/subtle"
	"io"
)

// AuthMode is the process-wide, immutable-after-startup auth configuration
// from spec.md §3. It is either NoAuth or RequireCredential; there is no
// other variant. Sessions only ever read it.
type AuthMode struct {
	username string
	password string
	require  bool
}

// NoAuth configures the server to accept only method 0x00.
func NoAuth() AuthMode { return AuthMode{} }

// RequireCredential configures the server to accept only method 0x02, and
// to compare every sub-negotiation against the given username/password.
func RequireCredential(username, password string) AuthMode {
	return AuthMode{username: username, password: password, require: true}
}

// RequireCredential reports whether this mode demands username/password
// auth (method 0x02) rather than no-auth (method 0x00).
func (m AuthMode) RequireCredential() bool { return m.require }

// authenticateUserPass implements spec.md §4.3 (RFC 1929 sub-negotiation).
//
// Open question resolved (see DESIGN.md): the reference accepts a VER byte
// of 0x00 or 0x01 rather than strictly requiring 0x01. We match that: any
// VER > SubnegVer fails BadVersion, any VER <= SubnegVer is accepted.
func authenticateUserPass(rw io.ReadWriter, mode AuthMode) error {
	ver, err := readByte(rw)
	if err != nil {
		return err
	}
	if ver > SubnegVer {
		return ErrBadVersion{Version: ver}
	}

	username, err := readLengthPrefixed(rw)
	if err != nil {
		return err
	}
	password, err := readLengthPrefixed(rw)
	if err != nil {
		return err
	}

	if !credentialMatches(mode, username, password) {
		return ErrBadCredential{}
	}

	_, err = rw.Write([]byte{SubnegVer, AuthStatusOK})
	return err
}

// credentialMatches compares the full username and password, always
// evaluating both. Each comparison is constant-time in the byte contents;
// subtle.ConstantTimeCompare returns at once when the lengths differ.
func credentialMatches(mode AuthMode, username, password []byte) bool {
	u := subtle.ConstantTimeCompare([]byte(mode.username), username) == 1
	p := subtle.ConstantTimeCompare([]byte(mode.password), password) == 1
	return u && p
}

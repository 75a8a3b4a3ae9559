package socks5

// Wire constants for the SOCKS5 protocol (RFC 1928) and its username/password
// sub-negotiation (RFC 1929). Values are bit-exact; do not renumber.
const (
	// Ver is the SOCKS version byte used throughout RFC 1928.
	Ver = 0x05

	// SubnegVer is the VER byte of the RFC 1929 auth sub-negotiation.
	SubnegVer = 0x01

	MethodNoAuth         = 0x00
	MethodUserPass       = 0x02
	MethodNoneAcceptable = 0xFF

	CmdConnect = 0x01

	RSV = 0x00

	AtypIPv4   = 0x01
	AtypDomain = 0x03
	AtypIPv6   = 0x04

	RepOK              = 0x00
	RepGeneralFailure  = 0x01
	RepNetUnreachable  = 0x03
	RepHostUnreachable = 0x04
	RepConnRefused     = 0x05
	RepCmdUnsupported  = 0x07

	AuthStatusOK   = 0x00
	AuthStatusFail = 0x01
)

// unspecifiedBND is the six zero bytes (0.0.0.0:0) the server reports as
// BND.ADDR/BND.PORT on every successful CONNECT reply.
var unspecifiedBND = [6]byte{}

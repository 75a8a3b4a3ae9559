package socks5

import (
	"errors"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("not valid UTF-8")

func isValidUTF8Domain(b []byte) bool {
	return utf8.Valid(b)
}

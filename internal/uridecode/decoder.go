package uridecode

import (
	"bytes"

	"github.com/indigo-web/feather/http/status"
)

// Decode translates percent-encoded octets into their true form, appending the result
// to buff. If src contains no escapes, it is returned as is. The buff may share the
// memory with the src as long as it starts at the same address or before it.
func Decode(src, buff []byte) ([]byte, error) {
	if bytes.IndexByte(src, '%') == -1 {
		return src, nil
	}

	for i := bytes.IndexByte(src, '%'); i != -1; i = bytes.IndexByte(src, '%') {
		if i+2 >= len(src) {
			return nil, status.ErrURIDecoding
		}

		hi, lo := unhex(src[i+1]), unhex(src[i+2])
		if hi|lo == 0xff {
			return nil, status.ErrURIDecoding
		}

		buff = append(buff, src[:i]...)
		buff = append(buff, hi<<4|lo)
		src = src[i+3:]
	}

	return append(buff, src...), nil
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	default:
		return 0xff
	}
}

//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package tcp

import (
	"syscall"

	"github.com/indigo-web/feather/config"
)

// control leaves the system defaults where the socket options aren't portable.
func control(config.NET) func(network, address string, c syscall.RawConn) error {
	return nil
}

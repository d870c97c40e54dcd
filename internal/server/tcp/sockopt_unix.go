//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package tcp

import (
	"fmt"
	"syscall"

	"github.com/indigo-web/feather/config"
	"golang.org/x/sys/unix"
)

func control(cfg config.NET) func(network, address string, c syscall.RawConn) error {
	return func(_, _ string, c syscall.RawConn) error {
		var sockErr error

		err := c.Control(func(fd uintptr) {
			sockErr = setSockopts(int(fd), cfg)
		})
		if err != nil {
			return err
		}

		return sockErr
	}
}

func setSockopts(fd int, cfg config.NET) error {
	options := []struct {
		name  string
		opt   int
		value int
	}{
		{"SO_REUSEADDR", unix.SO_REUSEADDR, 1},
		{"SO_REUSEPORT", unix.SO_REUSEPORT, 1},
		{"SO_RCVBUF", unix.SO_RCVBUF, cfg.SocketReadBuffer},
		{"SO_SNDBUF", unix.SO_SNDBUF, cfg.SocketWriteBuffer},
	}

	for _, o := range options {
		if o.value <= 0 {
			continue
		}

		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, o.opt, o.value); err != nil {
			return fmt.Errorf("setsockopt %s: %w", o.name, err)
		}
	}

	return nil
}

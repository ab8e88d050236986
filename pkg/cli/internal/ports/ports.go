// Package ports provides port availability checking.
package ports

import (
	"fmt"
	"net"
	"strconv"
)

// Check reports an error when host:port cannot be bound. Port 0 always
// succeeds.
func Check(host string, port int) error {
	if port == 0 {
		return nil
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	_ = ln.Close()
	return nil
}

// Error formats a Check failure with a hint.
func Error(port int, err error) error {
	return fmt.Errorf("port %d is not available (try --port 0 for an ephemeral port): %w", port, err)
}

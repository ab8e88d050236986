package ports

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	err = Check("127.0.0.1", port)
	require.Error(t, err)
	assert.Contains(t, Error(port, err).Error(), "--port 0")

	assert.NoError(t, Check("127.0.0.1", 0))
}

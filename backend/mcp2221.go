package backend

import (
	"github.com/mklimuk/sunsense/adapter"
	"github.com/mklimuk/sunsense/i2c"
	"github.com/mklimuk/sunsense/transport"
)

// MCP2221 opens the USB bridge. The bridge exposes a single bus so the bus
// number is ignored.
func MCP2221(_ int, addr uint8) (transport.Conn, error) {
	a := adapter.NewMCP2221()
	if err := a.Init(); err != nil {
		return nil, err
	}
	return i2c.NewConn(a, addr), nil
}

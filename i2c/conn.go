package i2c

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/mklimuk/sunsense"
	"github.com/mklimuk/sunsense/transport"
)

var _ transport.Conn = &Conn{}

// Conn exposes a raw addressable bus (periph host controller, MCP2221
// bridge) as an SMBus handle. SMBus transfers are emulated with plain
// writes and reads: read-byte-data becomes a register pointer write
// followed by a 1 byte read, write-word-data a 3 byte write.
type Conn struct {
	bus  sunsense.I2CBus
	addr byte
}

func NewConn(bus sunsense.I2CBus, addr byte) *Conn {
	return &Conn{bus: bus, addr: addr}
}

// SetAddr only records the address; raw buses address every transfer.
func (c *Conn) SetAddr(addr uint8) error {
	c.addr = addr
	return nil
}

func (c *Conn) ReadReg(addr, reg uint8) (uint8, error) {
	ctx := context.Background()
	buf := []byte{0x00}
	if tx, ok := c.bus.(sunsense.Transceiver); ok {
		if err := tx.TxAddr(ctx, addr, []byte{reg}, buf); err != nil {
			return 0, err
		}
		return buf[0], nil
	}
	if err := c.bus.WriteToAddr(ctx, addr, []byte{reg}); err != nil {
		return 0, err
	}
	if err := c.bus.ReadFromAddr(ctx, addr, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (c *Conn) WriteWord(addr, reg uint8, v uint16) error {
	buf := []byte{reg, 0x00, 0x00}
	binary.LittleEndian.PutUint16(buf[1:], v)
	return c.bus.WriteToAddr(context.Background(), addr, buf)
}

func (c *Conn) WriteByte(b uint8) (int, error) {
	if err := c.bus.WriteToAddr(context.Background(), c.addr, []byte{b}); err != nil {
		return 0, err
	}
	return 1, nil
}

func (c *Conn) Read(p []byte) (int, error) {
	if err := c.bus.ReadFromAddr(context.Background(), c.addr, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the underlying bus when it owns a resource.
func (c *Conn) Close() error {
	if closer, ok := c.bus.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

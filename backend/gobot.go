package backend

import (
	"fmt"

	gi2c "gobot.io/x/gobot/v2/drivers/i2c"
	"gobot.io/x/gobot/v2/platforms/raspi"

	"github.com/mklimuk/sunsense/transport"
)

var _ transport.Conn = (*gobotConn)(nil)

// gobotConn talks SMBus through a gobot Raspberry Pi adaptor. gobot binds a
// connection to one address, so SetAddr swaps connections.
type gobotConn struct {
	adaptor *raspi.Adaptor
	bus     int
	addr    uint8
	conn    gi2c.Connection
}

// Gobot opens the bus with gobot's raspi adaptor.
func Gobot(bus int, addr uint8) (transport.Conn, error) {
	a := raspi.NewAdaptor()
	if err := a.Connect(); err != nil {
		return nil, fmt.Errorf("adaptor connect error: %w", err)
	}
	c := &gobotConn{adaptor: a, bus: bus}
	if err := c.SetAddr(addr); err != nil {
		_ = a.Finalize()
		return nil, err
	}
	return c, nil
}

func (c *gobotConn) SetAddr(addr uint8) error {
	if c.conn != nil && c.addr == addr {
		return nil
	}
	conn, err := c.adaptor.GetI2cConnection(int(addr), c.bus)
	if err != nil {
		return fmt.Errorf("could not get connection to %#02x on bus %d: %w", addr, c.bus, err)
	}
	c.conn = conn
	c.addr = addr
	return nil
}

func (c *gobotConn) ReadReg(addr, reg uint8) (uint8, error) {
	if err := c.SetAddr(addr); err != nil {
		return 0, err
	}
	return c.conn.ReadByteData(reg)
}

func (c *gobotConn) WriteWord(addr, reg uint8, v uint16) error {
	if err := c.SetAddr(addr); err != nil {
		return err
	}
	return c.conn.WriteWordData(reg, v)
}

func (c *gobotConn) WriteByte(b uint8) (int, error) {
	if c.conn == nil {
		return 0, fmt.Errorf("no device selected")
	}
	if err := c.conn.WriteByte(b); err != nil {
		return 0, err
	}
	return 1, nil
}

func (c *gobotConn) Read(p []byte) (int, error) {
	if c.conn == nil {
		return 0, fmt.Errorf("no device selected")
	}
	return c.conn.Read(p)
}

// Close finalizes the adaptor, which closes every bus it opened.
func (c *gobotConn) Close() error {
	return c.adaptor.Finalize()
}

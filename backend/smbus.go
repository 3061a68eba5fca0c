package backend

import (
	"fmt"

	"github.com/go-daq/smbus"

	"github.com/mklimuk/sunsense/transport"
)

var _ transport.Conn = (*smbus.Conn)(nil)

// SMBus opens /dev/i2c-<bus> read/write and binds it to addr with
// ioctl(I2C_SLAVE).
func SMBus(bus int, addr uint8) (transport.Conn, error) {
	conn, err := smbus.Open(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("could not open /dev/i2c-%d: %w", bus, err)
	}
	return conn, nil
}

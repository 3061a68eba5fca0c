package i2c

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/sunsense"
	"github.com/mklimuk/sunsense/transport"
)

var (
	_ sunsense.I2CBus      = &GenericBus{}
	_ sunsense.Transceiver = &GenericBus{}
)

// GenericBus is a host I2C controller driven by periph.io.
type GenericBus struct {
	bus i2c.BusCloser
}

// NewGenericBus opens the bus registered under dev ("1", "I2C1", "/dev/i2c-1").
func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("periph driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus %s: %w", dev, err)
	}
	return &GenericBus{
		bus: bus,
	}, nil
}

// OpenGeneric is a transport.Opener backed by periph.io.
func OpenGeneric(bus int, addr uint8) (transport.Conn, error) {
	b, err := NewGenericBus(strconv.Itoa(bus))
	if err != nil {
		return nil, err
	}
	return NewConn(b, addr), nil
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

// TxAddr writes w and reads r using a repeated start.
func (b *GenericBus) TxAddr(ctx context.Context, address byte, w, r []byte) error {
	err := b.bus.Tx(uint16(address), w, r)
	if err != nil {
		return fmt.Errorf("could not transfer on i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}

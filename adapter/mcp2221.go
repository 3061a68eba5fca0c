// Package adapter drives USB to I2C bridges so the sensor can be reached
// from a development host without a native I2C controller.
package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/sunsense"
	"github.com/mklimuk/sunsense/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

const reportSize = 64

// HID command codes
const (
	cmdStatus     = 0x10
	cmdWrite      = 0x90
	cmdRead       = 0x91
	cmdReadData   = 0x40
	cancelTxn     = 0x10 // status/set parameters byte 2
	statusBusy    = 0x01
	readDataError = 0x41
)

var ErrDeviceNotFound = errors.New("mcp2221: device not found")

var _ sunsense.I2CBus = &MCP2221{}

// MCP2221 is a Microchip MCP2221(A) USB-HID to I2C bridge. The HID device
// is opened for every exchange so that the bridge survives being replugged.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

func NewMCP2221() *MCP2221 {
	return &MCP2221{
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: 50 * time.Millisecond,
	}
}

// Init checks that exactly one bridge is attached.
func (d *MCP2221) Init() error {
	devs := hid.Enumerate(VendorID, ProductID)
	switch {
	case len(devs) == 0:
		return ErrDeviceNotFound
	case len(devs) > 1:
		return fmt.Errorf("mcp2221: ambiguous device identification (%d devices)", len(devs))
	}
	return nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdWrite
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("mcp2221: write to %x failed: %w", address, err)
	}
	if d.response[1] == statusBusy {
		snsctx.Logger(ctx, slog.Default()).Debug("adapter busy", "addr", fmt.Sprintf("%#02x", address))
		return sunsense.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdRead
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("mcp2221: read from %x failed: %w", address, err)
	}
	resetBuffer(d.request)
	resetBuffer(d.response)
	d.request[0] = cmdReadData
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("mcp2221: error getting read data from adapter: %w", err)
	}
	if d.response[1] == readDataError {
		return fmt.Errorf("mcp2221: error reading the I2C slave data from the I2C engine")
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("mcp2221: invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp2221: status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// Release cancels the current I2C transfer, freeing a stuck bus.
func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = cancelTxn
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("mcp2221: release request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9-10:  requested I2C transfer length (LE)
		11-12: already transferred number of bytes (LE)
		13:    internal I2C data buffer counter
		14:    current I2C communication speed divider
		15:    current I2C timeout
		16-17: I2C address being used
		25:    read pending
	*/
	return &MCP2221Status{
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		ReadPending:            int(buffer[25]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
	}
}

func (d *MCP2221) send(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) > 1 {
		return fmt.Errorf("ambiguous device identification")
	}
	if len(devs) == 0 {
		return ErrDeviceNotFound
	}
	dev, err := devs[0].Open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() { _ = dev.Close() }()
	logger := snsctx.Logger(ctx, slog.Default())
	verbose := snsctx.IsVerbose(ctx)
	if verbose {
		logger.Debug("sending message to adapter", "report", hex.EncodeToString(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	timer := time.NewTimer(d.responseWait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		logger.Debug("read message from adapter", "report", hex.EncodeToString(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := range buf {
		buf[i] = 0x00
	}
}

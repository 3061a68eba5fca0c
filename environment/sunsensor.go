package environment

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/mklimuk/sunsense/transport"
)

// SunSensorAddr is the 7-bit bus address of the sun sensor.
const SunSensorAddr = 0x29

// DefaultSunSensorConfiguration is written to configuration register 0
// during initialization (0x7040).
const DefaultSunSensorConfiguration uint16 = 28736

const sunSensorDeviceID = 0x01

// Register map
const (
	regSunConf0    = 0x00
	regSunConf1    = 0x01
	regSunALSData  = 0x10
	regSunIRData   = 0x12
	regSunDeviceID = 0x14
)

var ErrIdentityMismatch = errors.New("sunsensor: device identity mismatch")

// RegisterBus is the register level transport the sensor is driven through.
// *transport.Transport implements it.
type RegisterBus interface {
	SelectDevice(ctx context.Context, addr uint8) error
	ReadByte(ctx context.Context, reg uint8) (byte, error)
	ReadBlock(ctx context.Context, reg uint8) (transport.Block, error)
	WriteWord(ctx context.Context, reg uint8, value uint16) error
}

// SunReading is a pair of samples taken one after the other.
type SunReading struct {
	Visible  uint16    `yaml:"visible"`
	Infrared uint16    `yaml:"infrared"`
	Time     time.Time `yaml:"time"`
}

type SunSensorConfig struct {
	Address       byte
	Configuration uint16
}

type SunSensorOption func(*SunSensorConfig)

func WithSunSensorAddress(address byte) SunSensorOption {
	return func(c *SunSensorConfig) {
		c.Address = address
	}
}

func WithConfiguration(word uint16) SunSensorOption {
	return func(c *SunSensorConfig) {
		c.Configuration = word
	}
}

// SunSensor represents an ambient light / infrared sun sensor with a 16-bit
// little-endian data register per channel.
//
// Usage:
//
//	s := NewSunSensor(transport.New(backend.SMBus))
//	if err := s.Initialize(ctx); err != nil { ... }
//	vis, err := s.ReadVisibleLux(ctx)
type SunSensor struct {
	transport RegisterBus
	config    SunSensorConfig
	now       func() time.Time
}

func NewSunSensor(bus RegisterBus, opts ...SunSensorOption) *SunSensor {
	config := SunSensorConfig{
		Address:       SunSensorAddr,
		Configuration: DefaultSunSensorConfiguration,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &SunSensor{transport: bus, config: config, now: time.Now}
}

// Initialize selects the device, verifies its identity and writes the
// configuration word. Steps run in order and stop at the first failure;
// nothing is rolled back, calling Initialize again starts over.
func (s *SunSensor) Initialize(ctx context.Context) error {
	err := s.transport.SelectDevice(ctx, s.config.Address)
	if err != nil {
		return fmt.Errorf("sunsensor: device not accessible: %w", err)
	}
	id, err := s.transport.ReadByte(ctx, regSunDeviceID)
	if err != nil {
		return fmt.Errorf("sunsensor: could not read device id: %w", err)
	}
	if id != sunSensorDeviceID {
		return fmt.Errorf("%w: expected %#02x, got %#02x", ErrIdentityMismatch, sunSensorDeviceID, id)
	}
	err = s.transport.WriteWord(ctx, regSunConf0, s.config.Configuration)
	if err != nil {
		return fmt.Errorf("sunsensor: could not write configuration: %w", err)
	}
	return nil
}

// DeviceID reads the identity register of an already selected device.
func (s *SunSensor) DeviceID(ctx context.Context) (byte, error) {
	id, err := s.transport.ReadByte(ctx, regSunDeviceID)
	if err != nil {
		return 0, fmt.Errorf("sunsensor: could not read device id: %w", err)
	}
	return id, nil
}

// ReadVisibleLux returns the visible light channel.
func (s *SunSensor) ReadVisibleLux(ctx context.Context) (uint16, error) {
	return s.readLux(ctx, regSunALSData)
}

// ReadInfraredLux returns the infrared channel.
func (s *SunSensor) ReadInfraredLux(ctx context.Context) (uint16, error) {
	return s.readLux(ctx, regSunIRData)
}

// Read samples both channels, visible first.
func (s *SunSensor) Read(ctx context.Context) (SunReading, error) {
	vis, err := s.ReadVisibleLux(ctx)
	if err != nil {
		return SunReading{}, err
	}
	ir, err := s.ReadInfraredLux(ctx)
	if err != nil {
		return SunReading{}, err
	}
	return SunReading{Visible: vis, Infrared: ir, Time: s.now()}, nil
}

func (s *SunSensor) readLux(ctx context.Context, reg uint8) (uint16, error) {
	block, err := s.transport.ReadBlock(ctx, reg)
	if err != nil {
		return 0, fmt.Errorf("sunsensor: could not read register %#02x: %w", reg, err)
	}
	return decodeLux(block), nil
}

// decodeLux combines LSB (first byte on the wire) and MSB.
func decodeLux(block transport.Block) uint16 {
	return binary.LittleEndian.Uint16(block[:])
}

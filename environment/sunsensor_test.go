package environment

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sunsense/transport"
)

// MockRegisterBus is a mock implementation of RegisterBus using testify/mock
type MockRegisterBus struct {
	mock.Mock
}

func (m *MockRegisterBus) SelectDevice(ctx context.Context, addr uint8) error {
	return m.Called(ctx, addr).Error(0)
}

func (m *MockRegisterBus) ReadByte(ctx context.Context, reg uint8) (byte, error) {
	args := m.Called(ctx, reg)
	return args.Get(0).(byte), args.Error(1)
}

func (m *MockRegisterBus) ReadBlock(ctx context.Context, reg uint8) (transport.Block, error) {
	args := m.Called(ctx, reg)
	return args.Get(0).(transport.Block), args.Error(1)
}

func (m *MockRegisterBus) WriteWord(ctx context.Context, reg uint8, value uint16) error {
	return m.Called(ctx, reg, value).Error(0)
}

func TestSunSensor_DecodeLux(t *testing.T) {
	tests := []struct {
		given    transport.Block
		expected uint16
	}{
		{transport.Block{0x00, 0x00}, 0},
		{transport.Block{0x34, 0x12}, 0x1234},
		{transport.Block{0xFF, 0x00}, 255},
		{transport.Block{0x00, 0x01}, 256},
		{transport.Block{0xFF, 0xFF}, 65535},
	}
	for _, test := range tests {
		t.Run(hex.EncodeToString(test.given[:]), func(t *testing.T) {
			assert.Equal(t, test.expected, decodeLux(test.given))
		})
	}
}

func TestSunSensor_Initialize(t *testing.T) {
	bus := new(MockRegisterBus)
	bus.On("SelectDevice", mock.Anything, uint8(SunSensorAddr)).Return(nil).Once()
	bus.On("ReadByte", mock.Anything, uint8(regSunDeviceID)).Return(byte(0x01), nil).Once()
	bus.On("WriteWord", mock.Anything, uint8(regSunConf0), DefaultSunSensorConfiguration).Return(nil).Once()

	err := NewSunSensor(bus).Initialize(context.Background())

	assert.NoError(t, err)
	bus.AssertExpectations(t)
}

func TestSunSensor_Initialize_Options(t *testing.T) {
	bus := new(MockRegisterBus)
	bus.On("SelectDevice", mock.Anything, uint8(0x39)).Return(nil).Once()
	bus.On("ReadByte", mock.Anything, uint8(regSunDeviceID)).Return(byte(0x01), nil).Once()
	bus.On("WriteWord", mock.Anything, uint8(regSunConf0), uint16(0x1234)).Return(nil).Once()

	err := NewSunSensor(bus, WithSunSensorAddress(0x39), WithConfiguration(0x1234)).Initialize(context.Background())

	assert.NoError(t, err)
	bus.AssertExpectations(t)
}

func TestSunSensor_Initialize_ErrorCases(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(*MockRegisterBus)
		expectedError error
		configWritten bool
	}{
		{
			name: "select failure",
			setupMock: func(bus *MockRegisterBus) {
				bus.On("SelectDevice", mock.Anything, uint8(SunSensorAddr)).Return(transport.ErrHandleUnavailable).Once()
			},
			expectedError: transport.ErrHandleUnavailable,
		},
		{
			name: "identity read failure",
			setupMock: func(bus *MockRegisterBus) {
				bus.On("SelectDevice", mock.Anything, uint8(SunSensorAddr)).Return(nil).Once()
				bus.On("ReadByte", mock.Anything, uint8(regSunDeviceID)).Return(byte(0), transport.ErrReadRejected).Once()
			},
			expectedError: transport.ErrReadRejected,
		},
		{
			name: "identity mismatch",
			setupMock: func(bus *MockRegisterBus) {
				bus.On("SelectDevice", mock.Anything, uint8(SunSensorAddr)).Return(nil).Once()
				bus.On("ReadByte", mock.Anything, uint8(regSunDeviceID)).Return(byte(0x02), nil).Once()
			},
			expectedError: ErrIdentityMismatch,
		},
		{
			name: "configuration write failure",
			setupMock: func(bus *MockRegisterBus) {
				bus.On("SelectDevice", mock.Anything, uint8(SunSensorAddr)).Return(nil).Once()
				bus.On("ReadByte", mock.Anything, uint8(regSunDeviceID)).Return(byte(0x01), nil).Once()
				bus.On("WriteWord", mock.Anything, uint8(regSunConf0), DefaultSunSensorConfiguration).Return(transport.ErrWriteRejected).Once()
			},
			expectedError: transport.ErrWriteRejected,
			configWritten: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := new(MockRegisterBus)
			tt.setupMock(bus)

			err := NewSunSensor(bus).Initialize(context.Background())

			assert.ErrorIs(t, err, tt.expectedError)
			if !tt.configWritten {
				bus.AssertNotCalled(t, "WriteWord", mock.Anything, mock.Anything, mock.Anything)
			}
			bus.AssertExpectations(t)
		})
	}
}

func TestSunSensor_ReadLux(t *testing.T) {
	bus := new(MockRegisterBus)
	bus.On("ReadBlock", mock.Anything, uint8(regSunALSData)).Return(transport.Block{0x34, 0x12}, nil).Once()
	bus.On("ReadBlock", mock.Anything, uint8(regSunIRData)).Return(transport.Block{0xFF, 0xFF}, nil).Once()
	s := NewSunSensor(bus)
	ctx := context.Background()

	vis, err := s.ReadVisibleLux(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(4660), vis)

	ir, err := s.ReadInfraredLux(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), ir)
	bus.AssertExpectations(t)
}

func TestSunSensor_ReadLux_Failure(t *testing.T) {
	bus := new(MockRegisterBus)
	bus.On("ReadBlock", mock.Anything, uint8(regSunALSData)).Return(transport.Block{}, transport.ErrShortRead).Once()
	bus.On("ReadBlock", mock.Anything, uint8(regSunIRData)).Return(transport.Block{}, transport.ErrHandleClosed).Once()
	s := NewSunSensor(bus)
	ctx := context.Background()

	vis, err := s.ReadVisibleLux(ctx)
	assert.ErrorIs(t, err, transport.ErrShortRead)
	assert.Zero(t, vis)

	ir, err := s.ReadInfraredLux(ctx)
	assert.ErrorIs(t, err, transport.ErrHandleClosed)
	assert.Zero(t, ir)
}

func TestSunSensor_Read(t *testing.T) {
	bus := new(MockRegisterBus)
	bus.On("ReadBlock", mock.Anything, uint8(regSunALSData)).Return(transport.Block{0xE8, 0x03}, nil).Once()
	bus.On("ReadBlock", mock.Anything, uint8(regSunIRData)).Return(transport.Block{0x64, 0x00}, nil).Once()
	s := NewSunSensor(bus)
	stamp := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return stamp }

	reading, err := s.Read(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SunReading{Visible: 1000, Infrared: 100, Time: stamp}, reading)
}

func TestSunSensor_Read_StopsOnVisibleFailure(t *testing.T) {
	bus := new(MockRegisterBus)
	bus.On("ReadBlock", mock.Anything, uint8(regSunALSData)).Return(transport.Block{}, errors.New("nack")).Once()

	_, err := NewSunSensor(bus).Read(context.Background())

	assert.Error(t, err)
	bus.AssertNotCalled(t, "ReadBlock", mock.Anything, uint8(regSunIRData))
}

func TestSunSensor_DeviceID(t *testing.T) {
	bus := new(MockRegisterBus)
	bus.On("ReadByte", mock.Anything, uint8(regSunDeviceID)).Return(byte(0x01), nil).Once()
	id, err := NewSunSensor(bus).DeviceID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), id)
}

// fakeConn is an in-memory SMBus handle used to drive a real transport.
type fakeConn struct {
	registers map[uint8]uint8
	pointer   uint8
	words     map[uint8]uint16
	readCount int
}

func (c *fakeConn) SetAddr(addr uint8) error { return nil }

func (c *fakeConn) ReadReg(addr, reg uint8) (uint8, error) { return c.registers[reg], nil }

func (c *fakeConn) WriteWord(addr, reg uint8, v uint16) error {
	c.words[reg] = v
	return nil
}

func (c *fakeConn) WriteByte(b uint8) (int, error) {
	c.pointer = b
	return 1, nil
}

func (c *fakeConn) Read(p []byte) (int, error) {
	n := 0
	for i := range p[:min(len(p), c.readCount)] {
		p[i] = c.registers[c.pointer+uint8(i)]
		n++
	}
	return n, nil
}

func (c *fakeConn) Close() error { return nil }

func newFakeConn(id uint8) *fakeConn {
	return &fakeConn{
		registers: map[uint8]uint8{
			regSunDeviceID:    id,
			regSunALSData:     0x34,
			regSunALSData + 1: 0x12,
			regSunIRData:      0xFF,
			regSunIRData + 1:  0xFF,
		},
		words:     map[uint8]uint16{},
		readCount: transport.BlockSize,
	}
}

func TestSunSensor_OverTransport(t *testing.T) {
	tests := []struct {
		name          string
		id            uint8
		expectErr     error
		configWritten bool
	}{
		{name: "expected identity", id: 0x01, configWritten: true},
		{name: "unexpected identity", id: 0x02, expectErr: ErrIdentityMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newFakeConn(tt.id)
			tr := transport.New(func(bus int, addr uint8) (transport.Conn, error) { return conn, nil })
			s := NewSunSensor(tr)

			err := s.Initialize(context.Background())

			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
			} else {
				assert.NoError(t, err)
			}
			_, written := conn.words[regSunConf0]
			assert.Equal(t, tt.configWritten, written)
		})
	}
}

func TestSunSensor_OverTransport_ShortRead(t *testing.T) {
	conn := newFakeConn(0x01)
	tr := transport.New(func(bus int, addr uint8) (transport.Conn, error) { return conn, nil })
	s := NewSunSensor(tr)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	vis, err := s.ReadVisibleLux(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), vis)

	conn.readCount = 1
	_, err = s.ReadInfraredLux(ctx)
	assert.ErrorIs(t, err, transport.ErrShortRead)
}

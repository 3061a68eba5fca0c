// Package transport maps register level operations (byte read, block read,
// word write) onto an owned SMBus handle.
//
// A Transport reopens its handle on every SelectDevice call and never hands
// a closed handle to a read or write primitive: those return ErrHandleClosed
// instead. All methods are safe for concurrent use; calls are serialized.
package transport

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/sunsense/snsctx"
)

// BlockSize is the number of bytes moved by every block transfer.
const BlockSize = 2

// DefaultBus selects /dev/i2c-1.
const DefaultBus = 1

// Block holds the bytes of a single block transfer, in bus order.
type Block [BlockSize]byte

type Config struct {
	Bus    int
	Logger *slog.Logger
}

type Option func(*Config)

func WithBus(bus int) Option {
	return func(c *Config) {
		c.Bus = bus
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

type Transport struct {
	mx       sync.Mutex
	config   Config
	open     Opener
	conn     Conn // nil while closed
	addr     uint8
	selected bool
}

// New returns a closed transport that opens its handle with open.
func New(open Opener, opts ...Option) *Transport {
	config := Config{
		Bus:    DefaultBus,
		Logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Transport{config: config, open: open}
}

// ResetHandle marks the handle closed, releasing the previous one if any.
func (t *Transport) ResetHandle() {
	t.mx.Lock()
	defer t.mx.Unlock()
	t.resetHandle(context.Background())
}

// OpenHandle opens the bus device. On failure the handle stays closed and
// the returned error wraps ErrHandleUnavailable.
func (t *Transport) OpenHandle(ctx context.Context) error {
	t.mx.Lock()
	defer t.mx.Unlock()
	return t.openHandle(ctx)
}

// SelectDevice reopens the bus and binds it to addr. It reopens on every
// call so that a handle invalidated behind our back (adapter unplugged,
// driver reloaded) is never reused.
func (t *Transport) SelectDevice(ctx context.Context, addr uint8) error {
	t.mx.Lock()
	defer t.mx.Unlock()
	if addr > 0x7F {
		return fmt.Errorf("%w: %#02x is not a 7-bit address", ErrSelectRejected, addr)
	}
	t.resetHandle(ctx)
	t.addr = addr
	if err := t.openHandle(ctx); err != nil {
		return err
	}
	if err := t.conn.SetAddr(addr); err != nil {
		t.logger(ctx).Error("could not select device", "bus", t.config.Bus, "addr", fmt.Sprintf("%#02x", addr), "error", err)
		t.resetHandle(ctx)
		return fmt.Errorf("%w: %#02x: %w", ErrSelectRejected, addr, err)
	}
	t.selected = true
	t.logger(ctx).Debug("device selected", "bus", t.config.Bus, "addr", fmt.Sprintf("%#02x", addr))
	return nil
}

// ReadByte reads a single register of the selected device.
func (t *Transport) ReadByte(ctx context.Context, reg uint8) (byte, error) {
	t.mx.Lock()
	defer t.mx.Unlock()
	if err := t.ready(ctx); err != nil {
		return 0, err
	}
	v, err := t.conn.ReadReg(t.addr, reg)
	if err != nil {
		t.logger(ctx).Error("read register error", "addr", fmt.Sprintf("%#02x", t.addr), "reg", fmt.Sprintf("%#02x", reg), "error", err)
		return 0, fmt.Errorf("%w: register %#02x: %w", ErrReadRejected, reg, err)
	}
	t.dump(ctx, "read byte", reg, []byte{v})
	return v, nil
}

// ReadBlock points the device at reg and reads BlockSize bytes from it.
// The block is only returned when the whole transfer succeeded.
func (t *Transport) ReadBlock(ctx context.Context, reg uint8) (Block, error) {
	t.mx.Lock()
	defer t.mx.Unlock()
	if err := t.ready(ctx); err != nil {
		return Block{}, err
	}
	n, err := t.conn.WriteByte(reg)
	if err != nil {
		t.logger(ctx).Error("register select error", "addr", fmt.Sprintf("%#02x", t.addr), "reg", fmt.Sprintf("%#02x", reg), "error", err)
		return Block{}, fmt.Errorf("%w: select register %#02x: %w", ErrWriteRejected, reg, err)
	}
	if n <= 0 {
		t.logger(ctx).Error("register select error", "addr", fmt.Sprintf("%#02x", t.addr), "reg", fmt.Sprintf("%#02x", reg), "written", n)
		return Block{}, fmt.Errorf("%w: select register %#02x: %d bytes written", ErrWriteRejected, reg, n)
	}
	var buf Block
	n, err = t.conn.Read(buf[:])
	if err != nil {
		t.logger(ctx).Error("read register error", "addr", fmt.Sprintf("%#02x", t.addr), "reg", fmt.Sprintf("%#02x", reg), "error", err)
		return Block{}, fmt.Errorf("%w: register %#02x: %w", ErrReadRejected, reg, err)
	}
	if n != BlockSize {
		t.logger(ctx).Error("read register error", "addr", fmt.Sprintf("%#02x", t.addr), "reg", fmt.Sprintf("%#02x", reg), "expected", BlockSize, "got", n)
		return Block{}, fmt.Errorf("%w: register %#02x: expected %d bytes, got %d", ErrShortRead, reg, BlockSize, n)
	}
	t.dump(ctx, "read block", reg, buf[:])
	return buf, nil
}

// WriteWord writes a 16-bit value to reg of the selected device.
func (t *Transport) WriteWord(ctx context.Context, reg uint8, value uint16) error {
	t.mx.Lock()
	defer t.mx.Unlock()
	if err := t.ready(ctx); err != nil {
		return err
	}
	if err := t.conn.WriteWord(t.addr, reg, value); err != nil {
		t.logger(ctx).Error("write register error", "addr", fmt.Sprintf("%#02x", t.addr), "reg", fmt.Sprintf("%#02x", reg), "error", err)
		return fmt.Errorf("%w: register %#02x: %w", ErrWriteRejected, reg, err)
	}
	t.dump(ctx, "write word", reg, []byte{byte(value), byte(value >> 8)})
	return nil
}

// Close releases the handle. Closing a closed transport is a no-op.
func (t *Transport) Close() error {
	t.mx.Lock()
	defer t.mx.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.selected = false
	if err != nil {
		return fmt.Errorf("transport: could not close bus %d: %w", t.config.Bus, err)
	}
	return nil
}

func (t *Transport) IsOpen() bool {
	t.mx.Lock()
	defer t.mx.Unlock()
	return t.conn != nil
}

// Address returns the selected device address. ok is false when no device
// is currently selected.
func (t *Transport) Address() (addr uint8, ok bool) {
	t.mx.Lock()
	defer t.mx.Unlock()
	return t.addr, t.conn != nil && t.selected
}

func (t *Transport) resetHandle(ctx context.Context) {
	t.selected = false
	if t.conn == nil {
		return
	}
	if err := t.conn.Close(); err != nil {
		t.logger(ctx).Warn("could not release bus handle", "bus", t.config.Bus, "error", err)
	}
	t.conn = nil
}

func (t *Transport) openHandle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// never stack handles
	t.resetHandle(ctx)
	if t.open == nil {
		return fmt.Errorf("%w: no opener configured", ErrHandleUnavailable)
	}
	conn, err := t.open(t.config.Bus, t.addr)
	if err != nil {
		t.logger(ctx).Error("failed to open bus", "bus", t.config.Bus, "error", err)
		return fmt.Errorf("%w: bus %d: %w", ErrHandleUnavailable, t.config.Bus, err)
	}
	if conn == nil {
		t.logger(ctx).Error("failed to open bus", "bus", t.config.Bus)
		return fmt.Errorf("%w: bus %d", ErrHandleUnavailable, t.config.Bus)
	}
	t.conn = conn
	return nil
}

func (t *Transport) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.conn == nil {
		return ErrHandleClosed
	}
	return nil
}

func (t *Transport) dump(ctx context.Context, op string, reg uint8, data []byte) {
	if !snsctx.IsVerbose(ctx) {
		return
	}
	t.logger(ctx).Debug("bus transaction", "op", op, "addr", fmt.Sprintf("%#02x", t.addr), "reg", fmt.Sprintf("%#02x", reg), "data", hex.EncodeToString(data))
}

func (t *Transport) logger(ctx context.Context) *slog.Logger {
	return snsctx.Logger(ctx, t.config.Logger)
}

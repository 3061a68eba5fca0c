package transport

// Conn is an open handle to an SMBus controller. Its method set follows
// github.com/go-daq/smbus so that *smbus.Conn is usable as is; other
// backends adapt to it.
type Conn interface {
	// SetAddr binds subsequent plain reads and writes to the 7-bit address.
	SetAddr(addr uint8) error
	// ReadReg performs an SMBus read-byte-data transfer.
	ReadReg(addr, reg uint8) (uint8, error)
	// WriteWord performs an SMBus write-word-data transfer (LSB first on the wire).
	WriteWord(addr, reg uint8, v uint16) error
	// WriteByte sends a single byte to the selected address and returns the
	// number of bytes written.
	WriteByte(b uint8) (int, error)
	// Read reads from the selected address into p.
	Read(p []byte) (int, error)
	Close() error
}

// Opener opens a handle to the given bus. addr is the target the handle is
// about to be bound to; backends that need an address at open time use it.
type Opener func(bus int, addr uint8) (Conn, error)

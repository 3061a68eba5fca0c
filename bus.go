package sunsense

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a raw bus that addresses the target on every transfer.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// Transceiver is implemented by buses able to write and read in a single
// transaction (repeated start). Register reads prefer it when available.
type Transceiver interface {
	TxAddr(ctx context.Context, address byte, w, r []byte) error
}

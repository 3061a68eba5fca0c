// Package backend resolves the bus backends a transport can open.
package backend

import (
	"fmt"
	"sort"

	"github.com/mklimuk/sunsense/i2c"
	"github.com/mklimuk/sunsense/transport"
)

const (
	NameSMBus   = "smbus"
	NamePeriph  = "periph"
	NameGobot   = "gobot"
	NameMCP2221 = "mcp2221"
)

// Default matches the native /dev/i2c-N access of the sensor's reference
// firmware.
const Default = NameSMBus

var openers = map[string]transport.Opener{
	NameSMBus:   SMBus,
	NamePeriph:  i2c.OpenGeneric,
	NameGobot:   Gobot,
	NameMCP2221: MCP2221,
}

// Opener returns the opener registered under name.
func Opener(name string) (transport.Opener, error) {
	open, ok := openers[name]
	if !ok {
		return nil, fmt.Errorf("unknown bus backend %q (available: %v)", name, Names())
	}
	return open, nil
}

// Names lists the registered backends in lexical order.
func Names() []string {
	names := make([]string, 0, len(openers))
	for name := range openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sunsense/adapter"
	"github.com/mklimuk/sunsense/cmd/sunsense/console"
)

var usbCmd = cli.Command{
	Name:  "usb",
	Usage: "inspect USB HID devices usable as bus bridges",
	Subcommands: cli.Commands{
		&usbLsCmd,
		&usbDetectCmd,
	},
}

// knownBridges maps bridge names to their vendor and product ids.
var knownBridges = map[string][2]uint16{
	"MCP2221": {adapter.VendorID, adapter.ProductID},
}

var usbLsCmd = cli.Command{
	Name:  "ls",
	Usage: "list all HID devices",
	Action: func(c *cli.Context) error {
		devices := hid.Enumerate(0, 0)
		w := tabwriter.NewWriter(console.Writer(), 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PATH\tSERIAL\tVENDOR\tPRODUCT ID\tMANUFACTURER\tPRODUCT\n")
		for _, dev := range devices {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\t%s\n",
				dev.Path, dev.Serial, dev.VendorID, dev.ProductID, dev.Manufacturer, dev.Product)
		}
		return w.Flush()
	},
}

var usbDetectCmd = cli.Command{
	Name:  "detect",
	Usage: "list connected bridges supported by the mcp2221 backend",
	Action: func(c *cli.Context) error {
		w := tabwriter.NewWriter(console.Writer(), 24, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "VENDOR\tPRODUCT\tDEVICE\n")
		found := 0
		for _, dev := range hid.Enumerate(0, 0) {
			if name, ok := bridgeName(dev.VendorID, dev.ProductID); ok {
				_, _ = fmt.Fprintf(w, "%#x\t%#x\t%s\n", dev.VendorID, dev.ProductID, name)
				found++
			}
		}
		err := w.Flush()
		if err != nil {
			return err
		}
		if found == 0 {
			console.Warnf("no supported bridge detected")
		}
		return nil
	},
}

func bridgeName(vendor, product uint16) (string, bool) {
	for name, ids := range knownBridges {
		if ids[0] == vendor && ids[1] == product {
			return name, true
		}
	}
	return "", false
}

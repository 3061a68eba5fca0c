package main

import (
	"context"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/sunsense/adapter"
	"github.com/mklimuk/sunsense/cmd/sunsense/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "inspect and recover the MCP2221 USB bridge",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Usage: "print the bridge status",
	Action: func(c *cli.Context) error {
		return mcp2221Do(c, func(ctx context.Context, a *adapter.MCP2221) (*adapter.MCP2221Status, error) {
			return a.Status(ctx)
		})
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current transfer and release the bus",
	Action: func(c *cli.Context) error {
		return mcp2221Do(c, func(ctx context.Context, a *adapter.MCP2221) (*adapter.MCP2221Status, error) {
			return a.ReleaseBus(ctx)
		})
	},
}

func mcp2221Do(c *cli.Context, do func(context.Context, *adapter.MCP2221) (*adapter.MCP2221Status, error)) error {
	a := adapter.NewMCP2221()
	err := a.Init()
	if err != nil {
		return console.Exit(1, "adapter initialization error: %s", console.Red(err))
	}
	status, err := do(commandContext(c), a)
	if err != nil {
		return console.Exit(1, "adapter communication error: %s", console.Red(err))
	}
	enc := yaml.NewEncoder(console.Writer())
	defer func() { _ = enc.Close() }()
	err = enc.Encode(status)
	if err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return nil
}

package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sunsense/backend"
	"github.com/mklimuk/sunsense/pkg/config"
)

var commit string
var date string

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := cli.NewApp()
	app.Name = "sunsense"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", config.Version, date, commit)
	app.Usage = "sun sensor cli"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "enable verbose logging and bus transaction dumps",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"SUNSENSE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "backend",
			Aliases: []string{"b"},
			Usage:   "bus backend: " + strings.Join(backend.Names(), ", "),
		},
		&cli.IntFlag{
			Name:  "bus",
			Usage: "bus number (/dev/i2c-N)",
		},
		&cli.UintFlag{
			Name:  "addr",
			Usage: "7-bit device address",
		},
		&cli.BoolFlag{
			Name:  "simulate",
			Usage: "use a simulated sensor instead of the bus",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "output format: text, yaml",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "sampling interval of the watch command",
		},
	}
	app.Before = func(ctx *cli.Context) error {
		charm := chlog.NewWithOptions(os.Stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Commands = cli.Commands{
		&initCmd,
		&readCmd,
		&watchCmd,
		&usbCmd,
		&mcp2221Cmd,
	}
	err := app.Run(args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			log.Printf("unexpected error: %v", err)
			return exerr.ExitCode()
		}
		log.Printf("unexpected error: %v", err)
		return 1
	}
	return 0
}

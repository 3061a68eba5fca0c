package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sunsense/cmd/sunsense/console"
	"github.com/mklimuk/sunsense/environment"
)

var initCmd = cli.Command{
	Name:  "init",
	Usage: "verify the sensor identity and write its configuration",
	Flags: []cli.Flag{
		&cli.UintFlag{
			Name:  "configuration",
			Usage: "configuration word written to CONF_0",
			Value: uint(environment.DefaultSunSensorConfiguration),
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask for confirmation",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if c.IsSet("configuration") {
			if c.Uint("configuration") > 0xFFFF {
				return console.Exit(1, "configuration word %#x does not fit 16 bits", c.Uint("configuration"))
			}
			cfg.Configuration = uint16(c.Uint("configuration"))
		}
		if cfg.Configuration != environment.DefaultSunSensorConfiguration && !c.Bool("yes") {
			ok, err := console.Confirm(fmt.Sprintf("write non-default configuration %#04x to device %#02x?", cfg.Configuration, cfg.Address))
			if err != nil {
				return console.Exit(1, "confirmation error: %s", console.Red(err))
			}
			if !ok {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		sensor, closer, err := openSensor(c, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = closer.Close() }()
		err = sensor.Initialize(commandContext(c))
		if err != nil {
			return console.Exit(2, "sensor initialization error: %s", console.Red(err))
		}
		console.PInfof(console.PictoCheck, "sensor %s on bus %d initialized with configuration %s",
			console.White(fmt.Sprintf("%#02x", cfg.Address)), cfg.Bus, console.White(fmt.Sprintf("%#04x", cfg.Configuration)))
		return nil
	},
}

package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/sunsense/cmd/sunsense/console"
	"github.com/mklimuk/sunsense/environment"
	"github.com/mklimuk/sunsense/pkg/config"
)

const (
	channelVisible  = "visible"
	channelInfrared = "infrared"
	channelAll      = "all"
)

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "initialize the sensor and take a single reading",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "channel",
			Usage: "channel to read: visible, infrared, all",
			Value: channelAll,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		channel := c.String("channel")
		switch channel {
		case channelVisible, channelInfrared, channelAll:
		default:
			return console.Exit(1, "unknown channel %q", channel)
		}
		sensor, closer, err := openSensor(c, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = closer.Close() }()
		ctx := commandContext(c)
		err = sensor.Initialize(ctx)
		if err != nil {
			return console.Exit(2, "sensor initialization error: %s", console.Red(err))
		}
		reading, err := readChannel(ctx, sensor, channel)
		if err != nil {
			return console.Exit(3, "sensor read error: %s", console.Red(err))
		}
		return printReading(cfg.Format, channel, reading)
	},
}

func readChannel(ctx context.Context, sensor sunSensor, channel string) (environment.SunReading, error) {
	switch channel {
	case channelVisible:
		vis, err := sensor.ReadVisibleLux(ctx)
		return environment.SunReading{Visible: vis, Time: time.Now()}, err
	case channelInfrared:
		ir, err := sensor.ReadInfraredLux(ctx)
		return environment.SunReading{Infrared: ir, Time: time.Now()}, err
	default:
		return sensor.Read(ctx)
	}
}

func printReading(format, channel string, reading environment.SunReading) error {
	if format == config.FormatYAML {
		enc := yaml.NewEncoder(console.Writer())
		defer func() { _ = enc.Close() }()
		var out any = reading
		switch channel {
		case channelVisible:
			out = map[string]any{"visible": reading.Visible, "time": reading.Time}
		case channelInfrared:
			out = map[string]any{"infrared": reading.Infrared, "time": reading.Time}
		}
		err := enc.Encode(out)
		if err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return nil
	}
	if channel != channelInfrared {
		console.PInfof(console.PictoSun, "visible: %s", console.White(reading.Visible))
	}
	if channel != channelVisible {
		console.PInfof(console.PictoInfrared, "infrared: %s", console.White(reading.Infrared))
	}
	return nil
}

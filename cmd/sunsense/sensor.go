package main

import (
	"context"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sunsense/backend"
	"github.com/mklimuk/sunsense/cmd/sunsense/console"
	"github.com/mklimuk/sunsense/environment"
	"github.com/mklimuk/sunsense/pkg/config"
	"github.com/mklimuk/sunsense/snsctx"
	"github.com/mklimuk/sunsense/transport"
)

type sunSensor interface {
	Initialize(ctx context.Context) error
	ReadVisibleLux(ctx context.Context) (uint16, error)
	ReadInfraredLux(ctx context.Context) (uint16, error)
	Read(ctx context.Context) (environment.SunReading, error)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// loadConfig reads the config file and applies global flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, console.Exit(1, "configuration error: %s", console.Red(err))
	}
	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("addr") {
		if c.Uint("addr") > 0x7F {
			return cfg, console.Exit(1, "invalid device address %#x", c.Uint("addr"))
		}
		cfg.Address = uint8(c.Uint("addr"))
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("interval") {
		cfg.Interval = c.Duration("interval")
	}
	err = cfg.Validate()
	if err != nil {
		return cfg, console.Exit(1, "configuration error: %s", console.Red(err))
	}
	return cfg, nil
}

func commandContext(c *cli.Context) context.Context {
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	return snsctx.SetLogger(ctx, slog.Default())
}

// openSensor builds the sensor described by cfg. The returned closer
// releases the bus handle and must be called once the sensor is no longer used.
func openSensor(c *cli.Context, cfg config.Config) (sunSensor, io.Closer, error) {
	if c.Bool("simulate") {
		slog.Info("using simulated sun sensor")
		return simulatedSensor(time.Now), nopCloser{}, nil
	}
	open, err := backend.Opener(cfg.Backend)
	if err != nil {
		return nil, nil, console.Exit(1, "%s", console.Red(err))
	}
	tr := transport.New(open, transport.WithBus(cfg.Bus), transport.WithLogger(slog.Default()))
	sensor := environment.NewSunSensor(tr,
		environment.WithSunSensorAddress(cfg.Address),
		environment.WithConfiguration(cfg.Configuration),
	)
	return sensor, tr, nil
}

// simulatedSensor follows a daylight curve peaking at noon local time.
func simulatedSensor(now func() time.Time) *environment.MockSunSensor {
	daylight := func() float64 {
		t := now()
		hour := float64(t.Hour()) + float64(t.Minute())/60
		v := math.Sin((hour - 6) / 12 * math.Pi)
		if v < 0 {
			return 0
		}
		return v
	}
	return environment.NewMockSunSensor(
		func(ctx context.Context) (uint16, error) { return uint16(10 + 20000*daylight()), nil },
		func(ctx context.Context) (uint16, error) { return uint16(5 + 4000*daylight()), nil },
	)
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sunsense/cmd/sunsense/console"
	"github.com/mklimuk/sunsense/environment"
	"github.com/mklimuk/sunsense/pkg/config"
)

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "sample both channels periodically until interrupted",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "count",
			Usage: "stop after this many readings (0 runs forever)",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if c.Int("count") < 0 {
			return console.Exit(1, "invalid count %d", c.Int("count"))
		}
		sensor, closer, err := openSensor(c, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = closer.Close() }()
		ctx, stop := signal.NotifyContext(commandContext(c), os.Interrupt, syscall.SIGTERM)
		defer stop()
		err = watch(ctx, sensor, cfg.Interval, c.Int("count"), func(r sunSample) error {
			switch cfg.Format {
			case config.FormatText:
				console.Printf("%s #%d\n", console.Cyan(r.reading.Time.Format(time.TimeOnly)), r.seq)
			case config.FormatYAML:
				console.Printf("---\n")
			}
			return printReading(cfg.Format, channelAll, r.reading)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return console.Exit(3, "watch error: %s", console.Red(err))
		}
		return nil
	},
}

type sunSample struct {
	seq     int
	reading environment.SunReading
}

// watch initializes the sensor and emits a reading every interval. A failed
// read is logged and the sensor is initialized again before the next tick.
// It returns when ctx is done or after count readings when count > 0.
func watch(ctx context.Context, sensor sunSensor, interval time.Duration, count int, emit func(sunSample) error) error {
	ready := false
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	seq := 0
	for {
		if !ready {
			err := sensor.Initialize(ctx)
			if err != nil {
				slog.Warn("sensor initialization failed", "error", err)
			} else {
				ready = true
			}
		}
		if ready {
			reading, err := sensor.Read(ctx)
			if err != nil {
				slog.Warn("sensor read failed", "error", err)
				ready = false
			} else {
				seq++
				if err := emit(sunSample{seq: seq, reading: reading}); err != nil {
					return err
				}
				if count > 0 && seq >= count {
					return nil
				}
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

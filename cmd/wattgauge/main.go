package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/wattgauge/pkg/config"
	"github.com/ja7ad/wattgauge/pkg/gauge"
	"github.com/ja7ad/wattgauge/pkg/meter"
	"github.com/ja7ad/wattgauge/pkg/pub"
	"github.com/ja7ad/wattgauge/pkg/types"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:   "wattgauge",
		Short: "Estimate and publish current power from a cumulative energy meter",
		Long: `wattgauge reads the cumulative watt-hour registers of a utility meter
over an optical (IEC 62056-21) serial head, derives a damped estimate of
the current power draw, and publishes it over MQTT whenever the reading
changed enough to be worth reporting.

Meters that can run in both directions (solar export) are handled by
tracking import and export separately; exported power is negative.

Examples:
  wattgauge --config /etc/wattgauge/wattgauge.yaml
  wattgauge replay capture.csv --report 30s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfgPath)
		},
	}

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: wattgauge.yaml in . or /etc/wattgauge)")
	root.AddCommand(replayCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	clock := meter.NewWallClock()
	src, err := meter.OpenSerial(meter.SerialConfig{
		Device: cfg.Serial.Device,
		Baud:   cfg.Serial.Baud,
	}, clock)
	if err != nil {
		return err
	}
	defer src.Close()

	publisher := pub.New(pub.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		Topic:    cfg.MQTT.Topic,
	}, slog.Default())
	if err := publisher.Connect(); err != nil {
		return err
	}
	defer publisher.Close()

	slog.Info("reading meter",
		"device", cfg.Serial.Device, "baud", cfg.Serial.Baud,
		"broker", cfg.MQTT.Broker, "topic", cfg.MQTT.Topic)

	var eg gauge.EnergyGauge
	lastPublish := time.Now()

	read := time.NewTicker(cfg.Poll.ReadInterval)
	defer read.Stop()
	report := time.NewTicker(cfg.Poll.PublishInterval)
	defer report.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("interrupted")
			return nil

		case <-read.C:
			r, err := src.Read(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Warn("meter read failed", "err", err)
				continue
			}
			eg.FeedPositive(r.TimeMillis, r.ImportWh)
			eg.FeedNegative(r.TimeMillis, r.ExportWh)

		case <-report.C:
			// Publish on a significant change, or when the silence
			// watchdog expires so consumers can tell "no change" from
			// "no meter".
			forced := time.Since(lastPublish) >= cfg.Poll.MaxSilence
			if !eg.HasSignificantChange() && !forced {
				continue
			}
			watt := eg.Power()
			if err := publisher.Publish(pub.Message{
				PowerW:   watt,
				ImportWh: eg.PositiveEnergyTotal(),
				ExportWh: eg.NegativeEnergyTotal(),
				Time:     time.Now(),
			}); err != nil {
				slog.Warn("publish failed", "err", err)
				continue
			}
			slog.Info("published",
				"power", types.Watts(watt).Humanized(),
				"import", types.WattHours(eg.PositiveEnergyTotal()).Humanized(),
				"export", types.WattHours(eg.NegativeEnergyTotal()).Humanized(),
				"forced", forced)
			eg.Reset()
			lastPublish = time.Now()
		}
	}
}

func replayCmd() *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "replay CAPTURE.csv",
		Short: "Run the estimator over a captured meter log",
		Long: `Replay feeds a CSV capture of (time, import_wh[, export_wh]) rows
through the estimator and prints a reading at each report interval of
replayed time, exactly as the live loop would have published it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), args[0], every)
		},
	}
	cmd.Flags().DurationVar(&every, "report", 30*time.Second, "replayed time between reports")
	return cmd
}

func runReplay(ctx context.Context, path string, every time.Duration) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	src, err := meter.NewReplay(f)
	if err != nil {
		return err
	}
	if every <= 0 {
		return fmt.Errorf("report interval must be > 0")
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "T (ms)\tPOWER\tIMPORT\tEXPORT\tSIGNIFICANT")
	fmt.Fprintln(tw, "------\t-----\t------\t------\t-----------")

	var eg gauge.EnergyGauge
	var started bool
	var nextReport uint64
	step := uint64(every.Milliseconds())

	for {
		r, err := src.Read(ctx)
		if errors.Is(err, meter.ErrExhausted) {
			break
		}
		if err != nil {
			return err
		}
		eg.FeedPositive(r.TimeMillis, r.ImportWh)
		eg.FeedNegative(r.TimeMillis, r.ExportWh)

		if !started {
			started = true
			nextReport = r.TimeMillis + step
			continue
		}
		for r.TimeMillis >= nextReport {
			significant := eg.HasSignificantChange()
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%v\n",
				r.TimeMillis,
				types.Watts(eg.Power()).Humanized(),
				types.WattHours(eg.PositiveEnergyTotal()).Humanized(),
				types.WattHours(eg.NegativeEnergyTotal()).Humanized(),
				significant)
			if significant {
				eg.Reset()
			}
			nextReport += step
		}
	}
	return tw.Flush()
}

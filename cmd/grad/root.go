package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/born-ml/grad/internal/config"
)

// app carries the configuration shared by every subcommand.
type app struct {
	cfg      config.Config
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{shutdown: func(context.Context) error { return nil }}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Warn().Err(err).Msg("ignoring environment, using defaults")
		cfg = config.Default()
	}
	a.cfg = cfg

	root := &cobra.Command{
		Use:           "grad",
		Short:         "Reverse-mode automatic differentiation on CPU, WebGPU and OpenCL",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.shutdown(context.Background())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.Backend, "backend", a.cfg.Backend, "compute backend: cpu, webgpu or opencl")
	flags.IntVar(&a.cfg.DeviceIndex, "device", a.cfg.DeviceIndex, "device index for GPU backends")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.BoolVar(&a.cfg.Trace, "trace", a.cfg.Trace, "print OpenTelemetry spans to stdout")

	root.AddCommand(newVersionCmd(), newDevicesCmd(a), newDemoCmd(a))
	return root
}

func (a *app) setup() error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	lvl, err := a.cfg.Level()
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)

	if a.cfg.Trace {
		shutdown, err := initTracer()
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		a.shutdown = shutdown
	}
	return nil
}

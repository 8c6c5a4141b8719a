// Command pipec compiles the pipelines of a TOML pipeline file for a
// hardware profile and prints their executables, statistics and
// register state.
//
// Usage:
//
//	pipec -config pipelines.toml [-regs] [-ir] [-watch] [-v]
//	pipec -profiles
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/pipec"
	"github.com/gogpu/pipec/hw"
)

func main() {
	var (
		configPath = flag.String("config", "pipelines.toml", "pipeline file")
		watch      = flag.Bool("watch", false, "rebuild when the pipeline file or its shaders change")
		registers  = flag.Bool("regs", false, "dump register writes")
		ir         = flag.Bool("ir", false, "dump IR and disassembly")
		verbose    = flag.Bool("v", false, "debug logging")
		profiles   = flag.Bool("profiles", false, "list hardware profiles and exit")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "pipec",
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}
	pipec.SetLogger(slog.New(logger))

	if *profiles {
		for _, name := range hw.Names() {
			fmt.Println(hw.MustLookup(name))
		}
		return
	}

	gpu, err := openGPU()
	if err != nil {
		logger.Fatal("open device", "err", err)
	}
	defer gpu.close()

	opts := reportOptions{registers: *registers, ir: *ir}
	build := func() error { return run(os.Stdout, *configPath, gpu, opts) }

	if err := build(); err != nil {
		logger.Error("build failed", "err", err)
		if !*watch {
			gpu.close()
			os.Exit(1)
		}
	}
	if !*watch {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := watchConfig(ctx, *configPath, logger, build); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("watch", "err", err)
	}
}

// gpu is the device code is uploaded to. pipec never executes code, so
// the noop backend serves.
type gpu struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
}

func openGPU() (*gpu, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, err
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.New("no adapter")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	return &gpu{instance: instance, device: open.Device, queue: open.Queue}, nil
}

func (g *gpu) close() {
	if g.instance == nil {
		return
	}
	g.device.Destroy()
	g.instance.Destroy()
	g.instance = nil
}

// run builds every pipeline of the file at path and reports them to w.
// Pipelines that fail are logged; the first failure is returned after
// the rest are reported.
func run(w io.Writer, path string, g *gpu, opts reportOptions) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	profile, err := cfg.HardwareProfile()
	if err != nil {
		return err
	}
	dev, err := pipec.New(g.device, g.queue, profile, pipec.WithMemoryBudget(cfg.MemoryBudget))
	if err != nil {
		return err
	}
	defer dev.Close()

	flags := pipec.CaptureStatistics
	if opts.ir {
		flags |= pipec.CaptureInternalRepresentations
	}

	var errs []error
	emit := func(name string, p *pipec.Pipeline, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			return
		}
		defer p.Destroy()
		if err := writeReport(w, name, p, opts); err != nil {
			errs = append(errs, err)
		}
	}

	for i := range cfg.Graphics {
		name := cfg.Graphics[i].Name
		desc, err := cfg.GraphicsDescription(i)
		if err != nil {
			emit(name, nil, err)
			continue
		}
		p, err := dev.CreateGraphicsPipeline(desc, flags)
		emit(name, p, err)
	}
	for i := range cfg.Compute {
		name := cfg.Compute[i].Name
		desc, err := cfg.ComputeDescription(i)
		if err != nil {
			emit(name, nil, err)
			continue
		}
		p, err := dev.CreateComputePipeline(desc, flags)
		emit(name, p, err)
	}

	st := dev.MemoryStats()
	fmt.Fprintf(w, "built %d of %d pipelines for %s, peak code memory %d bytes\n",
		len(cfg.Graphics)+len(cfg.Compute)-len(errs), len(cfg.Graphics)+len(cfg.Compute), profile.Name, st.PeakBytes)
	return errors.Join(errs...)
}

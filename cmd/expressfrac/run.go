package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/expressfrac/internal/export"
	"github.com/san-kum/expressfrac/internal/frac"
	"github.com/san-kum/expressfrac/internal/logcapture"
	"github.com/san-kum/expressfrac/internal/metrics"
	"github.com/san-kum/expressfrac/internal/orchestrator"
	"github.com/spf13/cobra"
)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	noteColor = color.New(color.FgCyan)
	dimColor  = color.New(color.Faint)
)

// runHeadless drives the orchestrator on this goroutine and prints the log
// stream as it arrives.
func runHeadless(cmd *cobra.Command, opts *options) error {
	req, s, err := prepare(cmd, opts)
	if err != nil {
		return err
	}
	logger := headlessLogger(opts.debug)
	slog.SetDefault(logger)

	ctx, stop := signalContext()
	defer stop()

	out := cmd.OutOrStdout()
	o := orchestrator.New(s,
		orchestrator.WithLogger(logger),
		orchestrator.WithContext(ctx),
		orchestrator.WithStrictTime(opts.strict),
	)
	if !opts.quiet {
		o.SubscribeLog(func(l logcapture.Line) {
			dimColor.Fprintln(out, l.Text)
		})
	}

	noteColor.Fprintf(out, "running %s (%s) to t=%g s\n", req.Model, req.Integrator, req.Schedule.TimeEnd)
	start := time.Now()

	final, err := o.Run(ctx, req)
	if err != nil {
		failColor.Fprintf(out, "run failed: %v\n", err)
		return err
	}

	okColor.Fprintf(out, "completed in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "run id: %s\n", o.RunID())
	fmt.Fprintf(out, "results: %d\n", o.Store().Len())
	printSummary(out, final.Summary)
	printMetrics(out, metrics.Evaluate(o.Store().Steps(), metrics.Defaults()...))

	for _, path := range []string{opts.csvPath, opts.jsonPath} {
		if path == "" {
			continue
		}
		if err := o.Store().ExportFile(path, o.RunID(), req); err != nil {
			failColor.Fprintf(out, "export %s: %v\n", path, err)
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", path)
	}

	if opts.svgPath != "" {
		if err := writeFrontSVG(opts.svgPath, o.Store().Times(), o.Store().Series(frontLocation)); err != nil {
			failColor.Fprintf(out, "export %s: %v\n", opts.svgPath, err)
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", opts.svgPath)
	}

	if opts.plot && o.Store().Len() > 1 {
		front := o.Store().Series(frontLocation)
		fmt.Fprintln(out)
		fmt.Fprintln(out, asciigraph.Plot(front,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("front length [m] vs result"),
		))
	}
	return nil
}

func printSummary(w io.Writer, s frac.Summary) {
	fmt.Fprintln(w, "\nfinal state:")
	fmt.Fprintf(w, "  time:        %.2f s\n", s.Time)
	fmt.Fprintf(w, "  front:       %.3f m\n", s.FrontLocation)
	fmt.Fprintf(w, "  max width:   %.4f mm\n", s.MaxWidth*1e3)
	fmt.Fprintf(w, "  net press.:  %.4f MPa\n", s.NetPressure/1e6)
	fmt.Fprintf(w, "  injected:    %.3f m3\n", s.InjectedVolume)
	fmt.Fprintf(w, "  leaked:      %.3f m3\n", s.LeakedVolume)
	fmt.Fprintf(w, "  efficiency:  %.4f\n", s.Efficiency)
}

func frontLocation(s frac.Summary) float64 { return s.FrontLocation }

func printMetrics(w io.Writer, values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.6g\n", name, values[name])
	}
}

func writeFrontSVG(path string, times, front []float64) error {
	chart := export.DefaultChart("fracture front")
	chart.XLabel, chart.YLabel = "time [s]", "front [m]"
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := chart.WriteSVG(f, times, front); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
